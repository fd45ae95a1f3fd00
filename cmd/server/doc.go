// Command server runs the txgate coordinator service: it recovers
// persisted state, serves the websocket gateway for panel sessions and
// exposes the REST and metrics surfaces.
//
// Configuration comes from environment variables, with a few flag
// overrides for local runs:
//
//	server -port 8000 -storage file -analysis http://localhost:9090 -dev
package main
