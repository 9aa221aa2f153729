// Package cache holds search pages fetched during a run so repeated
// query/page combinations do not burn API quota twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching raw response bodies.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey generates a cache key for one search page.
func PageKey(query, pageToken string) string {
	hash := sha256.Sum256([]byte(query + "|" + pageToken))
	return "doxwatch:v1:" + hex.EncodeToString(hash[:])
}
