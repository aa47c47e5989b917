package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// throttleClock drives a Throttler deterministically.
type throttleClock struct {
	now time.Time
}

func (c *throttleClock) Now() time.Time { return c.now }

func newTestThrottler(limit time.Duration, fn func(string)) (*Throttler[string], *throttleClock) {
	th := NewThrottler(limit, fn)
	clock := &throttleClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	th.now = clock.Now
	return th, clock
}

func TestThrottler_LeadingEdgeAndCooldown(t *testing.T) {
	rec := &recorder{}
	th, clock := newTestThrottler(200*time.Millisecond, rec.record)

	// t=0: fires immediately.
	require.True(t, th.Call("a"))
	// t=10ms: inside cooldown, dropped.
	clock.now = clock.now.Add(10 * time.Millisecond)
	require.False(t, th.Call("b"))
	// t=300ms: cooldown over, fires and restarts it.
	clock.now = clock.now.Add(290 * time.Millisecond)
	require.True(t, th.Call("c"))

	assert.Equal(t, []string{"a", "c"}, rec.snapshot())
}

func TestThrottler_CooldownRestartsOnFire(t *testing.T) {
	rec := &recorder{}
	th, clock := newTestThrottler(100*time.Millisecond, rec.record)

	require.True(t, th.Call("a"))
	clock.now = clock.now.Add(100 * time.Millisecond)
	require.True(t, th.Call("b"), "a call exactly at the limit is allowed")

	// The second fire restarted the window, so 50ms later is still cold.
	clock.now = clock.now.Add(50 * time.Millisecond)
	require.False(t, th.Call("v"))

	assert.Equal(t, []string{"a", "b"}, rec.snapshot())
}

func TestThrottler_DroppedCallsAreNotQueued(t *testing.T) {
	rec := &recorder{}
	th, clock := newTestThrottler(100*time.Millisecond, rec.record)

	th.Call("kept")
	th.Call("dropped1")
	th.Call("dropped2")

	clock.now = clock.now.Add(500 * time.Millisecond)
	assert.Equal(t, []string{"kept"}, rec.snapshot(), "dropped calls never fire later")
}
