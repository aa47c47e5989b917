// Package cache provides the response cache used by the gateway to avoid
// refetching upstream weather data. The default in-process implementation is
// Memory; Redis is available for multi-instance deployments.
//
// Values are stored as opaque byte slices (marshaled JSON) so that both
// backends share one interface.
package cache

import "context"

// Cache defines the interface for response caching.
type Cache interface {
	// Get returns the cached value for key, or false if missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set inserts or overwrites the entry for key, restarting its TTL.
	Set(ctx context.Context, key string, value []byte)
	// Delete removes an entry from the cache.
	Delete(ctx context.Context, key string)
	// Clear removes all entries unconditionally.
	Clear(ctx context.Context)
	// Len returns the number of entries currently stored, including entries
	// that have expired but not yet been swept.
	Len() int
}
