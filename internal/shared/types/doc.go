// Package types defines the shared contracts that cross context boundaries:
// the message envelope, the pending-transaction data model, decisions,
// runtime settings, and the structured handler result.
//
// Everything here is plain structured data. No type in this package carries
// behavior that depends on which context it lives in; a value marshals the
// same way whether it travels over the in-process relay or the websocket
// gateway.
package types
