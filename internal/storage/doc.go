// Package storage provides the durable key-value store behind the
// coordinator. The coordinator keeps no authoritative state in memory; it
// can be torn down at any moment and must come back correct, so everything
// that has to survive a restart lives in a Store.
//
// Three backends: file (JSON files on disk, the default), redis, and an
// in-memory store for tests. The three fixed slots (settings, pending
// transaction, analysis history) are independently readable and writable;
// nothing assumes transactional coupling between them.
package storage
