// Package cache persists detector responses keyed by image content so
// repeated analyses of the same photo skip the external calls.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Key derives the cache key for an image from its raw bytes.
func Key(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Store defines the persistence interface for detector caching.
type Store interface {
	// Get returns the cached payload for a detector and image key, or
	// nil when absent or expired.
	Get(ctx context.Context, detector, key string) ([]byte, error)
	Set(ctx context.Context, detector, key string, payload []byte, ttl time.Duration) error

	// Purge removes expired entries and reports how many were deleted.
	Purge(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
