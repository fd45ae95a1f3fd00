// Package analysis is the client for the external transaction-risk backend.
//
// The backend is opaque: it takes a chain id and transaction hash and
// returns a decoded behavior classification plus an optional explanation
// with a risk level. This package only does the HTTP plumbing: request
// shaping, the 60 second client-side timeout, and a circuit breaker so a
// dead backend fails fast. A timeout is surfaced as ErrTimeout, distinct
// from generic network failure, because the panel shows them differently.
package analysis
