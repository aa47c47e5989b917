package ratelimit

import (
	"sync"
	"time"
)

// Throttler caps invocation frequency to at most once per limit. The first
// Call fires immediately; later calls are dropped until limit has elapsed,
// after which the next Call fires immediately and restarts the cooldown.
// Unlike Debouncer it guarantees at least one invocation per window rather
// than deferring to the end.
type Throttler[T any] struct {
	mu    sync.Mutex
	limit time.Duration
	fn    func(T)
	last  time.Time
	now   func() time.Time // overridable for tests
}

// NewThrottler creates a Throttler that invokes fn at most once per limit.
func NewThrottler[T any](limit time.Duration, fn func(T)) *Throttler[T] {
	return &Throttler[T]{limit: limit, fn: fn, now: time.Now}
}

// Call invokes fn(v) synchronously if the cooldown has elapsed and reports
// whether it fired. Dropped calls are not queued.
func (t *Throttler[T]) Call(v T) bool {
	t.mu.Lock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.limit {
		t.mu.Unlock()
		return false
	}
	t.last = now
	t.mu.Unlock()

	t.fn(v)
	return true
}
