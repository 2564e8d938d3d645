// Package cache provides stage-output caching for the tiling pipeline.
//
// Building the layout and tiles for a multi-million node taxonomy takes
// minutes; the cache lets repeated runs over the same inputs skip
// whole stages. Three backends are provided:
//   - FileCache: directory-backed, for CLI usage
//   - RedisCache: shared cache for multi-machine pipelines
//   - NullCache: disables caching
//
// Keys are derived from content hashes of the stage inputs plus the
// options that influence the stage's output, so any change to either
// invalidates the entry.
package cache

import (
	"context"
	"time"
)

// TTLs per cached stage. Stage outputs are pure functions of their
// inputs, so the TTLs mostly bound disk usage rather than staleness.
const (
	// TTLTree is the lifetime of cached tree topology results.
	TTLTree = 7 * 24 * time.Hour

	// TTLLayout is the lifetime of cached layout node sets.
	TTLLayout = 7 * 24 * time.Hour

	// TTLTiles is the lifetime of cached tile sets.
	TTLTiles = 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
