package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented TTL cache for rendered API responses. The
// catalog endpoints serve mostly static data, so their handlers cache the
// serialized payload rather than re-running the aggregate queries on
// every request.
type Store interface {
	// Get returns the cached value for key and whether it was present
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for the given TTL. A non-positive TTL
	// stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key from the cache. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store. Safe to call
	// multiple times.
	Close() error
}
