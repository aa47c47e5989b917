// Package metrics registers the Prometheus metrics used by the weather
// gateway. All vectors are registered with the default registry at package
// load via promauto; the gateway and middleware increment them directly, and
// cmd/weather247 exposes them on /metrics through promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request-level counters and histograms.
var (
	// RequestsTotal counts completed weather operations labelled by operation,
	// provider, and outcome ("success", "error").
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather247_requests_total",
			Help: "Total number of weather operations processed by the gateway.",
		},
		[]string{"operation", "provider", "status"},
	)

	// RequestDuration observes end-to-end operation latency in seconds,
	// including upstream fetch time on cache misses.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather247_request_duration_seconds",
			Help:    "End-to-end weather operation duration in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "provider"},
	)

	// CacheHits counts responses served from the response cache, by operation.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather247_cache_hits_total",
			Help: "Total operations served from the response cache.",
		},
		[]string{"operation"},
	)

	// CacheMisses counts operations that had to fetch from the upstream
	// provider, by operation.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather247_cache_misses_total",
			Help: "Total operations that fetched fresh data upstream.",
		},
		[]string{"operation"},
	)

	// UpstreamErrors counts upstream provider failures broken down by provider
	// and error type ("status", "not_found", "transport").
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather247_upstream_errors_total",
			Help: "Total upstream weather provider errors by type.",
		},
		[]string{"provider", "error_type"},
	)

	// RateLimitRejections counts requests rejected by the per-client rate-limit
	// middleware, labelled by key_type ("ip").
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather247_rate_limit_rejections_total",
			Help: "Total requests rejected by rate limiting.",
		},
		[]string{"key_type"},
	)
)
