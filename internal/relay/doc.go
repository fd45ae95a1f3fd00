// Package relay is the message fabric between the four execution contexts
// (page realm, bridge, coordinator, panel).
//
// It deliberately mirrors the delivery semantics of the environment it
// models: every send is asynchronous, delivered at most once, and only if
// the receiving context is currently attached. There is no retry, no
// ordering guarantee across distinct messages, and no buffering for a
// receiver that is not there. A context that restarts comes back with an
// empty inbox; anything sent while it was away is gone.
//
// Post is fire-and-forget. Call carries a reply channel so request/response
// handlers can answer, but the reply is only a convenience on top of the
// same at-most-once delivery; callers bound the wait with their context.
//
// The relay stamps every outgoing message with the sender's context name.
// Receivers use that stamp to reject frames claiming to originate from a
// window they do not belong to.
package relay
