// Package weather247 provides a cache-fronted gateway for upstream weather
// services.
//
// The Gateway type is the main entry point: create one with New, register
// providers with RegisterProvider, and fetch weather with CurrentWeather,
// Forecast, AirQuality, Alerts, CompareCities, SearchCity, HistoricalDaily,
// or Summary.
//
// Responses are cached for a configurable TTL (10 minutes by default) and
// invalidated lazily; a periodic sweep evicts stale entries in bulk. The
// cache backend, providers, and persistence are configured via [Config],
// which can be loaded from a YAML or JSON file using [LoadConfig].
package weather247

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zaheeruldin978/weather247/internal/cache"
	"github.com/zaheeruldin978/weather247/internal/logging"
	"github.com/zaheeruldin978/weather247/internal/metrics"
	"github.com/zaheeruldin978/weather247/internal/requestlog"
	"github.com/zaheeruldin978/weather247/internal/units"
	"github.com/zaheeruldin978/weather247/providers"
)

// EventHookFunc is called asynchronously after a gateway event (operation
// completed or failed).
type EventHookFunc func(ctx context.Context, subject string, data map[string]interface{})

// Event subject constants used when invoking gateway hooks.
const (
	SubjectRequestCompleted = "weather.request.completed"
	SubjectRequestFailed    = "weather.request.failed"
)

// Operation names used in cache keys, metrics, and the request log.
const (
	OpCurrentWeather = "current_weather"
	OpForecast       = "weather_forecast"
	OpAirQuality     = "air_quality"
	OpAlerts         = "weather_alerts"
	OpCompare        = "compare_cities"
	OpSearch         = "search_city"
	OpHistorical     = "historical_weather"
	OpSummary        = "weather_summary"
)

// MaxCompareCities caps how many cities one CompareCities call will fetch.
const MaxCompareCities = 5

// ErrQueryTooShort is returned by SearchCity for queries under two characters.
var ErrQueryTooShort = errors.New("search query too short")

// ErrNoProviders is returned when an operation runs before any provider has
// been registered.
var ErrNoProviders = errors.New("no weather providers registered")

// Gateway is the main entry point for weather lookups.
type Gateway struct {
	mu       sync.RWMutex
	config   Config
	registry *providers.Registry
	cache    cache.Cache
	reqlog   requestlog.Writer
	hooks    []EventHookFunc
	now      func() time.Time
}

// New creates a new Gateway instance with the given configuration. The
// default response cache is in-memory with the configured TTL; use SetCache
// to swap in another backend.
func New(cfg Config) (*Gateway, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	var c cache.Cache
	switch cfg.Cache.Backend {
	case CacheNone:
		c = nil
	default:
		c = cache.NewMemory(time.Duration(cfg.Cache.MaxAgeMinutes) * time.Minute)
	}
	return &Gateway{
		config:   cfg,
		registry: providers.NewRegistry(),
		cache:    c,
		reqlog:   requestlog.NoopWriter{},
		now:      time.Now,
	}, nil
}

// RegisterProvider registers a provider with the gateway.
func (g *Gateway) RegisterProvider(p providers.Provider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registry.Register(p)
}

// SetCache replaces the response cache. nil disables caching.
func (g *Gateway) SetCache(c cache.Cache) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache = c
}

// SetRequestLog sets the request log writer.
func (g *Gateway) SetRequestLog(w requestlog.Writer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if w == nil {
		w = requestlog.NoopWriter{}
	}
	g.reqlog = w
}

// AddHook registers an EventHookFunc that is called asynchronously on each
// completed or failed operation. Multiple hooks may be registered; all are
// invoked for every event.
func (g *Gateway) AddHook(fn EventHookFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, fn)
}

// Get returns a registered provider by name.
func (g *Gateway) Get(name string) (providers.Provider, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registry.Get(name)
}

// List returns the names of all registered providers.
func (g *Gateway) List() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registry.List()
}

// StartSweeper runs the memory cache's expiry sweep until ctx is done. It is
// a no-op for backends that expire natively. Blocks; run in a goroutine.
func (g *Gateway) StartSweeper(ctx context.Context) {
	g.mu.RLock()
	mem, ok := g.cache.(*cache.Memory)
	interval := time.Duration(g.config.Cache.SweepIntervalMinutes) * time.Minute
	g.mu.RUnlock()
	if !ok {
		return
	}
	mem.StartSweeper(ctx, interval)
}

// provider resolves the provider to use: the named one, the configured
// default, or the first registered.
func (g *Gateway) provider(name string) (providers.Provider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if name == "" {
		name = g.config.Providers.Default
	}
	if name != "" {
		p, ok := g.registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown provider: %q", name)
		}
		return p, nil
	}
	p := g.registry.Default()
	if p == nil {
		return nil, ErrNoProviders
	}
	return p, nil
}

// providerName reports the resolved default provider's name for telemetry,
// or "" when none is registered.
func (g *Gateway) providerName() string {
	p, err := g.provider("")
	if err != nil {
		return ""
	}
	return p.Name()
}

// CurrentWeather returns current conditions for a city, enriched with air
// quality, serving from the cache unless force is set or the entry has aged
// out.
func (g *Gateway) CurrentWeather(ctx context.Context, city, country string, force bool) (*providers.CurrentConditions, error) {
	start := g.now()
	key := cacheKey(OpCurrentWeather, city)

	if !force {
		var cached providers.CurrentConditions
		if g.cacheGet(ctx, OpCurrentWeather, key, &cached) {
			g.finish(ctx, OpCurrentWeather, city, "cache", start, true, nil)
			return &cached, nil
		}
	} else {
		metrics.CacheMisses.WithLabelValues(OpCurrentWeather).Inc()
	}

	p, err := g.provider("")
	if err != nil {
		return nil, err
	}

	cond, err := p.CurrentWeather(ctx, city, country)
	if err != nil {
		g.finish(ctx, OpCurrentWeather, city, p.Name(), start, false, err)
		return nil, err
	}
	g.enrichConditions(ctx, p, cond)

	g.cacheSet(ctx, key, cond)
	g.finish(ctx, OpCurrentWeather, city, p.Name(), start, false, nil)
	return cond, nil
}

// enrichConditions fills the derived fields of a conditions snapshot: air
// quality, AQI category, and compass wind direction. An air-quality failure
// degrades to AQI 50 ("Good") rather than failing the whole lookup.
func (g *Gateway) enrichConditions(ctx context.Context, p providers.Provider, cond *providers.CurrentConditions) {
	aq, err := p.AirQuality(ctx, cond.Coord)
	switch {
	case err != nil:
		logging.FromContext(ctx).Warn("air quality enrichment failed",
			"city", cond.City, "provider", p.Name(), "error", err)
		metrics.UpstreamErrors.WithLabelValues(p.Name(), errorType(err)).Inc()
		cond.AQI = 50
	case aq.AQI > 0:
		cond.AQI = aq.AQI
	default:
		cond.AQI = units.PollutionIndexToAQI(aq.PollutionIndex)
	}
	cond.AQICategory = units.AQICategory(cond.AQI)
	cond.WindCompass = units.WindDirection(cond.WindDegrees)
	cond.Temperature = units.Round1(cond.Temperature)
	cond.FeelsLike = units.Round1(cond.FeelsLike)
	cond.WindSpeed = units.Round1(cond.WindSpeed)
}

// Forecast returns an hourly forecast for a city, served from the cache when
// fresh.
func (g *Gateway) Forecast(ctx context.Context, city string) (*providers.Forecast, error) {
	start := g.now()
	key := cacheKey(OpForecast, city)

	var cached providers.Forecast
	if g.cacheGet(ctx, OpForecast, key, &cached) {
		g.finish(ctx, OpForecast, city, "cache", start, true, nil)
		return &cached, nil
	}

	p, err := g.provider("")
	if err != nil {
		return nil, err
	}

	fc, err := p.Forecast(ctx, city)
	if err != nil {
		g.finish(ctx, OpForecast, city, p.Name(), start, false, err)
		return nil, err
	}

	g.cacheSet(ctx, key, fc)
	g.finish(ctx, OpForecast, city, p.Name(), start, false, nil)
	return fc, nil
}

// AirQualityReport is the air-quality payload for a city.
type AirQualityReport struct {
	City       string               `json:"city"`
	Country    string               `json:"country"`
	AirQuality providers.AirQuality `json:"air_quality"`
	Category   string               `json:"category"`
}

// AirQuality returns pollution data for a city. When the upstream lookup
// fails after geocoding succeeded, a minimal valid payload is returned so
// dashboards keep rendering.
func (g *Gateway) AirQuality(ctx context.Context, city, country string) (*AirQualityReport, error) {
	start := g.now()
	key := cacheKey(OpAirQuality, city)

	var cached AirQualityReport
	if g.cacheGet(ctx, OpAirQuality, key, &cached) {
		g.finish(ctx, OpAirQuality, city, "cache", start, true, nil)
		return &cached, nil
	}

	p, err := g.provider("")
	if err != nil {
		return nil, err
	}

	loc, err := p.Geocode(ctx, city, country)
	if err != nil {
		g.finish(ctx, OpAirQuality, city, p.Name(), start, false, err)
		return nil, err
	}

	report := &AirQualityReport{City: loc.Name, Country: loc.Country}
	aq, err := p.AirQuality(ctx, loc.Coord)
	if err != nil {
		logging.FromContext(ctx).Warn("air quality fetch failed, returning default",
			"city", city, "provider", p.Name(), "error", err)
		metrics.UpstreamErrors.WithLabelValues(p.Name(), errorType(err)).Inc()
		report.AirQuality = providers.AirQuality{
			AQI:        50,
			Components: map[string]float64{},
			MeasuredAt: g.now().UTC(),
		}
	} else {
		if aq.AQI == 0 {
			aq.AQI = units.PollutionIndexToAQI(aq.PollutionIndex)
		}
		report.AirQuality = *aq
	}
	report.Category = units.AQICategory(report.AirQuality.AQI)

	g.cacheSet(ctx, key, report)
	g.finish(ctx, OpAirQuality, city, p.Name(), start, false, nil)
	return report, nil
}

// Alerts returns severe-weather alerts for a city. Providers without an
// alert feed, and keys without the required upstream subscription, degrade
// to an empty alert list.
func (g *Gateway) Alerts(ctx context.Context, city string) (*providers.AlertReport, error) {
	start := g.now()

	p, err := g.provider("")
	if err != nil {
		return nil, err
	}

	report, err := providers.FetchAlerts(ctx, p, city)
	if err != nil {
		if errors.Is(err, providers.ErrCityNotFound) {
			g.finish(ctx, OpAlerts, city, p.Name(), start, false, err)
			return nil, err
		}
		if !errors.Is(err, providers.ErrAlertsUnsupported) {
			// Alert access is a paid add-on upstream; degrade instead of failing.
			logging.FromContext(ctx).Warn("alert fetch failed, returning empty alerts",
				"city", city, "provider", p.Name(), "error", err)
			metrics.UpstreamErrors.WithLabelValues(p.Name(), errorType(err)).Inc()
		}
		g.finish(ctx, OpAlerts, city, p.Name(), start, false, nil)
		return &providers.AlertReport{City: city, Alerts: []providers.Alert{}}, nil
	}

	g.finish(ctx, OpAlerts, city, p.Name(), start, false, nil)
	return report, nil
}

// ComparisonReport maps city name (as requested) to its current conditions.
type ComparisonReport struct {
	Comparison map[string]*providers.CurrentConditions `json:"comparison"`
}

// CompareCities fetches current weather for up to MaxCompareCities cities.
// Cities beyond the cap are dropped; cities that fail to resolve are omitted
// from the result rather than failing the whole comparison.
func (g *Gateway) CompareCities(ctx context.Context, cities []string) (*ComparisonReport, error) {
	start := g.now()
	if len(cities) > MaxCompareCities {
		cities = cities[:MaxCompareCities]
	}
	label := strings.Join(cities, ",")

	report := &ComparisonReport{Comparison: make(map[string]*providers.CurrentConditions, len(cities))}
	for _, city := range cities {
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		cond, err := g.CurrentWeather(ctx, city, "", false)
		if err != nil {
			logging.FromContext(ctx).Warn("comparison city skipped", "city", city, "error", err)
			continue
		}
		report.Comparison[city] = cond
	}
	if len(report.Comparison) == 0 {
		g.finish(ctx, OpCompare, label, g.providerName(), start, false, providers.ErrCityNotFound)
		return nil, providers.ErrCityNotFound
	}
	g.finish(ctx, OpCompare, label, g.providerName(), start, false, nil)
	return report, nil
}

// SearchResult is the outcome of a city search.
type SearchResult struct {
	Found bool            `json:"found"`
	City  *providers.City `json:"city,omitempty"`
}

// SearchCity resolves a free-form city query via geocoding. Queries shorter
// than two characters return ErrQueryTooShort. A query that resolves nothing
// yields Found=false, not an error.
func (g *Gateway) SearchCity(ctx context.Context, query string) (*SearchResult, error) {
	start := g.now()
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return nil, ErrQueryTooShort
	}

	p, err := g.provider("")
	if err != nil {
		return nil, err
	}

	loc, err := p.Geocode(ctx, query, "")
	if err != nil {
		if errors.Is(err, providers.ErrCityNotFound) {
			g.finish(ctx, OpSearch, query, p.Name(), start, false, nil)
			return &SearchResult{Found: false}, nil
		}
		g.finish(ctx, OpSearch, query, p.Name(), start, false, err)
		return nil, err
	}

	g.finish(ctx, OpSearch, query, p.Name(), start, false, nil)
	return &SearchResult{Found: true, City: loc}, nil
}

// HistoricalDay is one synthesized daily observation.
type HistoricalDay struct {
	Date           string  `json:"date"`
	MaxTemperature float64 `json:"max_temperature"`
	MinTemperature float64 `json:"min_temperature"`
	AvgTemperature float64 `json:"avg_temperature"`
	AvgHumidity    int     `json:"avg_humidity"`
	AvgPressure    int     `json:"avg_pressure"`
	Precipitation  float64 `json:"precipitation"`
}

// HistoricalReport is a daily historical series for a city.
type HistoricalReport struct {
	City    string          `json:"city"`
	Country string          `json:"country"`
	Days    []HistoricalDay `json:"historical_data"`
}

// HistoricalDaily returns a deterministic synthesized daily series for the
// inclusive date range. Real archive data needs a paid upstream subscription;
// until one exists the series is derived from the calendar so repeated calls
// agree.
func (g *Gateway) HistoricalDaily(ctx context.Context, city string, from, to time.Time) (*HistoricalReport, error) {
	start := g.now()
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: end %s before start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	p, err := g.provider("")
	if err != nil {
		return nil, err
	}

	loc, err := p.Geocode(ctx, city, "")
	if err != nil {
		g.finish(ctx, OpHistorical, city, p.Name(), start, false, err)
		return nil, err
	}

	report := &HistoricalReport{City: loc.Name, Country: loc.Country}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := d.Day()
		report.Days = append(report.Days, HistoricalDay{
			Date:           d.Format("2006-01-02"),
			MaxTemperature: float64(20 + day%10),
			MinTemperature: float64(10 + day%8),
			AvgTemperature: float64(15 + day%9),
			AvgHumidity:    60 + day%20,
			AvgPressure:    1013 + day%10,
			Precipitation:  units.Round1(float64(day%7) * 0.5),
		})
	}

	g.finish(ctx, OpHistorical, city, p.Name(), start, false, nil)
	return report, nil
}

// Summary is the composite current + forecast + alerts payload.
type Summary struct {
	City        string                       `json:"city"`
	Country     string                       `json:"country"`
	Current     *providers.CurrentConditions `json:"current"`
	Forecast    *providers.Forecast          `json:"forecast,omitempty"`
	Alerts      *providers.AlertReport       `json:"alerts,omitempty"`
	LastUpdated time.Time                    `json:"last_updated"`
}

// Summary composes current conditions, the forecast, and alerts for a city.
// Current conditions are required; forecast and alert failures degrade to
// absent sections.
func (g *Gateway) Summary(ctx context.Context, city, country string) (*Summary, error) {
	start := g.now()
	current, err := g.CurrentWeather(ctx, city, country, false)
	if err != nil {
		g.finish(ctx, OpSummary, city, g.providerName(), start, false, err)
		return nil, err
	}

	summary := &Summary{
		City:        current.City,
		Country:     current.Country,
		Current:     current,
		LastUpdated: g.now().UTC(),
	}
	if fc, err := g.Forecast(ctx, city); err == nil {
		summary.Forecast = fc
	} else {
		logging.FromContext(ctx).Warn("summary forecast unavailable", "city", city, "error", err)
	}
	if alerts, err := g.Alerts(ctx, city); err == nil {
		summary.Alerts = alerts
	}
	g.finish(ctx, OpSummary, city, g.providerName(), start, false, nil)
	return summary, nil
}

// ClearCache evicts all cached responses.
func (g *Gateway) ClearCache(ctx context.Context) {
	g.mu.RLock()
	c := g.cache
	g.mu.RUnlock()
	if c != nil {
		c.Clear(ctx)
	}
}

func cacheKey(op, city string) string {
	return op + "_" + strings.ToLower(strings.TrimSpace(city))
}

func (g *Gateway) cacheGet(ctx context.Context, op, key string, out any) bool {
	g.mu.RLock()
	c := g.cache
	g.mu.RUnlock()
	if c == nil {
		return false
	}
	raw, ok := c.Get(ctx, key)
	if !ok {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logging.FromContext(ctx).Warn("dropping undecodable cache entry", "key", key, "error", err)
		c.Delete(ctx, key)
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return true
}

func (g *Gateway) cacheSet(ctx context.Context, key string, value any) {
	g.mu.RLock()
	c := g.cache
	g.mu.RUnlock()
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logging.FromContext(ctx).Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	c.Set(ctx, key, raw)
}

// finish records metrics, logs, the request log entry, and hooks for one
// completed operation.
func (g *Gateway) finish(ctx context.Context, op, city, provider string, start time.Time, cacheHit bool, opErr error) {
	latency := g.now().Sub(start)
	log := logging.FromContext(ctx)

	status := "success"
	errMsg := ""
	subject := SubjectRequestCompleted
	if opErr != nil {
		status = "error"
		errMsg = opErr.Error()
		subject = SubjectRequestFailed
		metrics.UpstreamErrors.WithLabelValues(provider, errorType(opErr)).Inc()
		log.Error("weather operation failed",
			"operation", op,
			"city", city,
			"provider", provider,
			"latency_ms", latency.Milliseconds(),
			"error", errMsg,
		)
	} else {
		log.Debug("weather operation completed",
			"operation", op,
			"city", city,
			"provider", provider,
			"cache_hit", cacheHit,
			"latency_ms", latency.Milliseconds(),
		)
	}
	metrics.RequestsTotal.WithLabelValues(op, provider, status).Inc()
	metrics.RequestDuration.WithLabelValues(op, provider).Observe(latency.Seconds())

	entry := requestlog.Entry{
		TraceID:      logging.TraceIDFromContext(ctx),
		Operation:    op,
		City:         city,
		Provider:     provider,
		CacheHit:     cacheHit,
		DurationMs:   latency.Milliseconds(),
		ErrorMessage: errMsg,
	}
	g.mu.RLock()
	w := g.reqlog
	hooks := make([]EventHookFunc, len(g.hooks))
	copy(hooks, g.hooks)
	g.mu.RUnlock()

	if err := w.Write(ctx, entry); err != nil {
		log.Warn("request log write failed", "error", err)
	}

	if len(hooks) > 0 {
		data := map[string]interface{}{
			"trace_id":   entry.TraceID,
			"operation":  op,
			"city":       city,
			"provider":   provider,
			"cache_hit":  cacheHit,
			"latency_ms": latency.Milliseconds(),
			"timestamp":  g.now(),
		}
		if errMsg != "" {
			data["error"] = errMsg
		}
		for _, hook := range hooks {
			go hook(ctx, subject, data)
		}
	}
}

// errorType buckets an upstream error for metrics.
func errorType(err error) string {
	var se *providers.StatusError
	switch {
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, providers.ErrCityNotFound):
		return "not_found"
	default:
		return "transport"
	}
}
