// Package resilience provides a circuit breaker for outbound calls to the
// analysis backend. The breaker opens after sustained failures so a dead
// backend fails fast instead of holding every panel open for the full
// request timeout.
package resilience
