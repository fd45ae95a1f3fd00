// Package gateway is the websocket surface that lets a real extension UI
// talk the cross-context message contract over the wire.
//
// Each connection gets its own relay attachment, so a frame from the UI is
// just another message on the bus: it is forwarded to the coordinator and
// answered with the handler's structured result. Badge updates are pushed
// to every connected session.
package gateway
