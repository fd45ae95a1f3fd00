// Package coordinator is the single source of truth for which transaction
// currently awaits a human decision, and the dispatcher for analysis
// requests and UI affordances.
//
// The coordinator's host can tear it down and restart it at any time, so
// it is written as stateless compute over durable storage: every handler
// reads what it needs from the store and writes back what must survive.
// Startup is the recovery point: it clears whatever a crashed predecessor
// left in the pending slot and on the badge.
//
// Handlers are keyed by message type. A failure inside a handler is caught
// at the boundary and turned into a structured error result, so a sender
// that gets any response gets a well-formed one; unknown message types get
// an explicit error instead of silence.
package coordinator
