package ratelimit

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/zaheeruldin978/weather247/internal/metrics"
)

// Store maintains per-key rate.Limiter instances sharing the same rate/burst.
type Store struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewStore creates a Store whose per-key limiters allow ratePerSecond
// requests/s with the given burst. If burst <= 0 it defaults to the ceiling
// of ratePerSecond (no extra burst).
func NewStore(ratePerSecond float64, burst int) *Store {
	if burst <= 0 {
		burst = int(ratePerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Store{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(ratePerSecond),
		burst:    burst,
	}
}

// Allow checks (and creates if needed) the limiter for key.
func (s *Store) Allow(key string) bool {
	// Fast path — limiter already exists.
	s.mu.RLock()
	l, ok := s.limiters[key]
	s.mu.RUnlock()
	if ok {
		return l.Allow()
	}

	// Slow path — create new limiter.
	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock.
	if l, ok = s.limiters[key]; ok {
		return l.Allow()
	}
	l = rate.NewLimiter(s.rate, s.burst)
	s.limiters[key] = l
	return l.Allow()
}

// Middleware rejects requests whose client IP exceeds the store's rate with
// 429 Too Many Requests. It relies on an upstream middleware (chi RealIP) to
// have normalised r.RemoteAddr.
func Middleware(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Allow(r.RemoteAddr) {
				metrics.RateLimitRejections.WithLabelValues("ip").Inc()
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
