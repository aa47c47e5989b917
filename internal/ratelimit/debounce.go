// Package ratelimit provides invocation rate control: a Debouncer and
// Throttler for collapsing bursts of calls (city search as a user types),
// and a per-client token-bucket middleware for the HTTP server.
package ratelimit

import (
	"sync"
	"time"
)

// Debouncer delays invocation of fn until wait has elapsed with no further
// Call. Each Call cancels any pending invocation and schedules a new one, so
// only the last call in any wait window fires, with that call's argument.
type Debouncer[T any] struct {
	mu    sync.Mutex
	wait  time.Duration
	fn    func(T)
	timer *time.Timer
}

// NewDebouncer creates a Debouncer that invokes fn with the argument of the
// most recent Call once wait has elapsed without another Call.
func NewDebouncer[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Call schedules fn(v) to run wait from now, cancelling any pending
// invocation. fn runs on a timer goroutine.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { d.fn(v) })
}

// Stop cancels the pending invocation, if any. It reports whether a pending
// invocation was cancelled. The Debouncer remains usable after Stop.
func (d *Debouncer[T]) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}
