package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value      []byte
	insertedAt time.Time
}

// Memory is a thread-safe in-memory cache with TTL expiration. Entries are
// evicted lazily when an expired key is read, and in bulk by ClearExpired,
// which StartSweeper runs on an interval. There is no capacity bound: between
// sweeps the map grows with the number of distinct keys written.
type Memory struct {
	mu     sync.Mutex
	maxAge time.Duration
	items  map[string]memoryEntry
	now    func() time.Time // overridable for tests
}

// DefaultMaxAge is how long entries stay valid when no TTL is configured.
const DefaultMaxAge = 10 * time.Minute

// DefaultSweepInterval is how often StartSweeper scans for expired entries
// when no interval is configured.
const DefaultSweepInterval = 5 * time.Minute

// NewMemory creates a new in-memory cache. If maxAge <= 0, DefaultMaxAge is used.
func NewMemory(maxAge time.Duration) *Memory {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Memory{
		maxAge: maxAge,
		items:  make(map[string]memoryEntry),
		now:    time.Now,
	}
}

// Get returns the cached value for key, or false if missing or expired.
// An expired entry encountered here is removed.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(entry.insertedAt) > m.maxAge {
		delete(m.items, key)
		return nil, false
	}
	return entry.value, true
}

// Set inserts or overwrites the entry for key with the current timestamp.
func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryEntry{value: value, insertedAt: m.now()}
}

// Delete removes an entry from the cache.
func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// Clear removes all entries from the cache.
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]memoryEntry)
}

// Len returns the number of entries currently in the cache, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// ClearExpired scans all entries and evicts every one older than maxAge.
// It returns the number of entries removed. Concurrent or overlapping calls
// are harmless.
func (m *Memory) ClearExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.maxAge)
	removed := 0
	for key, entry := range m.items {
		if entry.insertedAt.Before(cutoff) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs ClearExpired every interval until ctx is done. If
// interval <= 0, DefaultSweepInterval is used. It blocks; run it in its own
// goroutine.
func (m *Memory) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ClearExpired()
		}
	}
}
