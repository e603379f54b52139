package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for the per-process request cache used by the
// source clients. Entries only need to live for one pipeline run, but the
// cache is safe to share across runs within a process.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// RequestKey generates a cache key for a GET request URL (query string
// included, so distinct searches never collide)
func RequestKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "substantia:v1:" + hex.EncodeToString(hash[:])
}
