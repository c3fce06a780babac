package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Hasher accumulates multiple inputs into one content hash. Used to build
// keys covering a template document plus every photo of a session.
type Hasher struct {
	parts [][]byte
}

// Add appends data to the hash input.
func (h *Hasher) Add(data []byte) {
	h.parts = append(h.parts, data)
}

// Sum returns the hex digest over all added inputs, length-delimited so
// concatenation boundaries cannot collide.
func (h *Hasher) Sum() string {
	sum := sha256.New()
	for _, p := range h.parts {
		var lenBuf [8]byte
		n := len(p)
		for i := 0; i < 8; i++ {
			lenBuf[i] = byte(n >> (8 * i))
		}
		sum.Write(lenBuf[:])
		sum.Write(p)
	}
	return hex.EncodeToString(sum.Sum(nil))
}
