// Package monitoring exposes Prometheus metrics for the relay pipeline:
// interceptions, decisions by action, bypass approvals by reason, analysis
// dispatch outcomes and latency, plus gateway connection counts.
package monitoring
