package storage

import "context"

// Fixed slot keys. KeyPending is a single slot: the design supports one
// in-flight transaction at a time, and a fresh intercept overwrites it.
const (
	KeySettings = "settings"
	KeyPending  = "pending_tx"
	KeyHistory  = "analysis_history"
)

// Store is durable key-value storage with get/set/remove semantics.
//
// Get returns (nil, false, nil) for a missing key; errors are reserved for
// backend failures. Set overwrites unconditionally; the pending slot is
// last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
