// Package config loads process-level configuration from environment
// variables (12-factor style) with hard-coded defaults for development.
//
// Process configuration (ports, storage backend, backend endpoint) is
// distinct from the runtime Settings blob: the former is fixed at startup,
// the latter is durable-storage state served and mutated through the
// coordinator while the process runs.
package config
