// Package utils provides small shared helpers.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/TxGate/internal/shared/types"
)

// HashAlgorithm represents the hashing algorithm to use.
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// Hasher provides extensible hashing functionality.
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm.
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a hasher with the default algorithm.
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hash of the input data.
func (h *Hasher) Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashString computes a hash of a string.
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashJSON computes a deterministic hash of a JSON-serializable object.
func (h *Hasher) HashJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return h.Hash(data), nil
}

// TxDigest derives the lookup digest the panel hands to the analysis
// backend for a not-yet-broadcast transaction. The raw parameters are all
// that exists at this point, so the digest is over them, 0x-prefixed to
// match the backend's tx_hash format.
func TxDigest(tx types.TxParams) string {
	digest, err := DefaultHasher().HashJSON(tx)
	if err != nil {
		return ""
	}
	return "0x" + digest
}
