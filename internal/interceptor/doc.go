// Package interceptor wraps the page's wallet provider so transaction-send
// calls suspend until an operator decision arrives, while every other
// method passes through untouched.
//
// The interceptor lives in the page realm and dies with it. Its waiters,
// the suspended calls keyed by transaction id, never cross a context
// boundary; a page teardown garbage-collects them, which is the only
// cancellation this design has. Each waiter settles exactly once no matter
// how many decision messages show up for its id.
package interceptor
