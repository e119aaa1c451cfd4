package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sync"
)

// hasherPool holds reusable HMAC-SHA256 instances keyed with the checksum
// key. Must be initialized via InitHasherPool before Hash is called.
var hasherPool sync.Pool

// InitHasherPool seeds the package pool with HMAC-SHA256 hashers keyed by
// hashKey. Pooling avoids re-allocating hash state on the sync hot path,
// where every pushed envelope is checksummed.
func InitHasherPool(hashKey string) {
	hasherPool = sync.Pool{
		New: func() any {
			return hmac.New(sha256.New, []byte(hashKey))
		},
	}
}

// Hash returns the HMAC-SHA256 digest of data using a pooled hasher.
func Hash(data []byte) []byte {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()

	h.Write(data)
	sum := h.Sum(nil)

	h.Reset()
	hasherPool.Put(h)

	return sum
}

// HashString returns the hex-encoded HMAC-SHA256 digest of data under
// hashKey. Unlike Hash it builds a fresh HMAC instance per call, so it
// needs no pool initialization; operation checksums use it because the
// key is carried per engine, not per process.
func HashString(data string, hashKey string) string {
	return hex.EncodeToString(hashString([]byte(data), hashKey))
}

func hashString(data []byte, hashKey string) []byte {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(data)
	return hasher.Sum(nil)
}
