package weather247

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zaheeruldin978/weather247/internal/requestlog"
	"github.com/zaheeruldin978/weather247/providers"
)

// captureWriter records request log entries in memory.
type captureWriter struct {
	mu      sync.Mutex
	entries []requestlog.Entry
}

func (c *captureWriter) Write(_ context.Context, e requestlog.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureWriter) operations() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make(map[string]int)
	for _, e := range c.entries {
		ops[e.Operation]++
	}
	return ops
}

// fakeProvider counts upstream calls so tests can observe cache behavior.
type fakeProvider struct {
	mu           sync.Mutex
	name         string
	currentCalls int
	forecasts    int
	alertsErr    error
	aqErr        error
	aq           providers.AirQuality
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		name: "fake",
		aq:   providers.AirQuality{AQI: 57, Components: map[string]float64{"pm2_5": 12.0}},
	}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Geocode(_ context.Context, query, _ string) (*providers.City, error) {
	if strings.EqualFold(query, "nowhere") {
		return nil, providers.ErrCityNotFound
	}
	name := strings.ToLower(query)
	name = strings.ToUpper(name[:1]) + name[1:]
	return &providers.City{
		Name:    name,
		Country: "GB",
		Coord:   providers.Coordinates{Lat: 51.5, Lon: -0.12},
	}, nil
}

func (f *fakeProvider) CurrentWeather(ctx context.Context, city, country string) (*providers.CurrentConditions, error) {
	loc, err := f.Geocode(ctx, city, country)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.currentCalls++
	f.mu.Unlock()
	return &providers.CurrentConditions{
		City:        loc.Name,
		Country:     loc.Country,
		Coord:       loc.Coord,
		Temperature: 18.52,
		FeelsLike:   17.93,
		Humidity:    67,
		Pressure:    1012,
		WindSpeed:   4.14,
		WindDegrees: 90,
		Description: "scattered clouds",
		VisibilityM: 10000,
		ObservedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeProvider) Forecast(ctx context.Context, city string) (*providers.Forecast, error) {
	loc, err := f.Geocode(ctx, city, "")
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.forecasts++
	f.mu.Unlock()
	return &providers.Forecast{
		City:    loc.Name,
		Country: loc.Country,
		Entries: []providers.ForecastEntry{{Temperature: 19.0}},
	}, nil
}

func (f *fakeProvider) AirQuality(context.Context, providers.Coordinates) (*providers.AirQuality, error) {
	if f.aqErr != nil {
		return nil, f.aqErr
	}
	aq := f.aq
	return &aq, nil
}

func (f *fakeProvider) Alerts(ctx context.Context, city string) (*providers.AlertReport, error) {
	loc, err := f.Geocode(ctx, city, "")
	if err != nil {
		return nil, err
	}
	if f.alertsErr != nil {
		return nil, f.alertsErr
	}
	return &providers.AlertReport{
		City:    loc.Name,
		Country: loc.Country,
		Alerts:  []providers.Alert{{Event: "Heat Advisory"}},
	}, nil
}

func (f *fakeProvider) currentCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentCalls
}

func newTestGateway(t *testing.T, p providers.Provider) *Gateway {
	t.Helper()
	gw, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	gw.RegisterProvider(p)
	return gw
}

func TestGateway_NoProviders(t *testing.T) {
	gw, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := gw.CurrentWeather(context.Background(), "London", "", false); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestGateway_CurrentWeatherEnriched(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())

	cond, err := gw.CurrentWeather(context.Background(), "London", "", false)
	if err != nil {
		t.Fatalf("CurrentWeather: %v", err)
	}
	if cond.AQI != 57 {
		t.Errorf("expected AQI 57, got %d", cond.AQI)
	}
	if cond.AQICategory != "Moderate" {
		t.Errorf("expected Moderate, got %q", cond.AQICategory)
	}
	if cond.WindCompass != "E" {
		t.Errorf("expected E for 90°, got %q", cond.WindCompass)
	}
	if cond.Temperature != 18.5 {
		t.Errorf("expected rounded 18.5, got %v", cond.Temperature)
	}
}

func TestGateway_CurrentWeatherCached(t *testing.T) {
	fake := newFakeProvider()
	gw := newTestGateway(t, fake)
	ctx := context.Background()

	if _, err := gw.CurrentWeather(ctx, "London", "", false); err != nil {
		t.Fatalf("first call: %v", err)
	}
	cond, err := gw.CurrentWeather(ctx, "London", "", false)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if fake.currentCallCount() != 1 {
		t.Errorf("expected 1 upstream call, got %d", fake.currentCallCount())
	}
	if cond.City != "London" {
		t.Errorf("cached payload corrupted: %+v", cond)
	}

	// Different capitalisation hits the same entry.
	if _, err := gw.CurrentWeather(ctx, "LONDON", "", false); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if fake.currentCallCount() != 1 {
		t.Errorf("cache keys must be case-insensitive, got %d upstream calls", fake.currentCallCount())
	}
}

func TestGateway_CurrentWeatherForceBypassesCache(t *testing.T) {
	fake := newFakeProvider()
	gw := newTestGateway(t, fake)
	ctx := context.Background()

	if _, err := gw.CurrentWeather(ctx, "London", "", false); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.CurrentWeather(ctx, "London", "", true); err != nil {
		t.Fatal(err)
	}
	if fake.currentCallCount() != 2 {
		t.Errorf("force must refetch, got %d upstream calls", fake.currentCallCount())
	}
}

func TestGateway_CacheDisabled(t *testing.T) {
	fake := newFakeProvider()
	gw, err := New(Config{Cache: CacheConfig{Backend: CacheNone}})
	if err != nil {
		t.Fatal(err)
	}
	gw.RegisterProvider(fake)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := gw.CurrentWeather(ctx, "London", "", false); err != nil {
			t.Fatal(err)
		}
	}
	if fake.currentCallCount() != 3 {
		t.Errorf("disabled cache must always refetch, got %d", fake.currentCallCount())
	}
}

func TestGateway_AirQualityDegradesToDefault(t *testing.T) {
	fake := newFakeProvider()
	fake.aqErr = &providers.StatusError{Provider: "fake", StatusCode: 500, Message: "boom"}
	gw := newTestGateway(t, fake)

	report, err := gw.AirQuality(context.Background(), "London", "")
	if err != nil {
		t.Fatalf("AirQuality: %v", err)
	}
	if report.AirQuality.AQI != 50 {
		t.Errorf("expected default AQI 50, got %d", report.AirQuality.AQI)
	}
	if report.Category != "Good" {
		t.Errorf("expected Good, got %q", report.Category)
	}
}

func TestGateway_AirQualityUnknownCity(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())
	if _, err := gw.AirQuality(context.Background(), "Nowhere", ""); !errors.Is(err, providers.ErrCityNotFound) {
		t.Fatalf("expected ErrCityNotFound, got %v", err)
	}
}

func TestGateway_AlertsDegradeOnUpstreamFailure(t *testing.T) {
	fake := newFakeProvider()
	fake.alertsErr = &providers.StatusError{Provider: "fake", StatusCode: 401, Message: "subscription required"}
	gw := newTestGateway(t, fake)

	report, err := gw.Alerts(context.Background(), "London")
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	if len(report.Alerts) != 0 {
		t.Errorf("expected empty alerts, got %d", len(report.Alerts))
	}
}

func TestGateway_AlertsWithoutFeed(t *testing.T) {
	// stub implements Provider but not AlertProvider.
	gw := newTestGateway(t, alertlessProvider{newFakeProvider()})

	report, err := gw.Alerts(context.Background(), "London")
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	if len(report.Alerts) != 0 {
		t.Errorf("expected empty alerts, got %d", len(report.Alerts))
	}
}

// alertlessProvider shadows the embedded Alerts method with an incompatible
// signature so the type no longer satisfies providers.AlertProvider.
type alertlessProvider struct{ *fakeProvider }

func (alertlessProvider) Alerts(context.Context, string) {}

func TestGateway_CompareCitiesCapsAtFive(t *testing.T) {
	fake := newFakeProvider()
	gw := newTestGateway(t, fake)

	cities := []string{"A1", "B2", "C3", "D4", "E5", "F6", "G7"}
	report, err := gw.CompareCities(context.Background(), cities)
	if err != nil {
		t.Fatalf("CompareCities: %v", err)
	}
	if len(report.Comparison) != MaxCompareCities {
		t.Errorf("expected %d cities, got %d", MaxCompareCities, len(report.Comparison))
	}
	if _, ok := report.Comparison["F6"]; ok {
		t.Error("cities beyond the cap must be dropped")
	}
}

func TestGateway_CompareCitiesSkipsFailures(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())

	report, err := gw.CompareCities(context.Background(), []string{"London", "Nowhere"})
	if err != nil {
		t.Fatalf("CompareCities: %v", err)
	}
	if len(report.Comparison) != 1 {
		t.Errorf("expected 1 city, got %d", len(report.Comparison))
	}

	if _, err := gw.CompareCities(context.Background(), []string{"Nowhere"}); !errors.Is(err, providers.ErrCityNotFound) {
		t.Fatalf("all-failed comparison should error, got %v", err)
	}
}

func TestGateway_SearchCity(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())
	ctx := context.Background()

	if _, err := gw.SearchCity(ctx, "L"); !errors.Is(err, ErrQueryTooShort) {
		t.Fatalf("expected ErrQueryTooShort, got %v", err)
	}
	if _, err := gw.SearchCity(ctx, "  x  "); !errors.Is(err, ErrQueryTooShort) {
		t.Fatalf("whitespace must not count toward the minimum, got %v", err)
	}

	result, err := gw.SearchCity(ctx, "London")
	if err != nil {
		t.Fatalf("SearchCity: %v", err)
	}
	if !result.Found || result.City.Name != "London" {
		t.Errorf("unexpected result: %+v", result)
	}

	result, err = gw.SearchCity(ctx, "Nowhere")
	if err != nil {
		t.Fatalf("SearchCity: %v", err)
	}
	if result.Found {
		t.Error("unknown city must report found=false, not an error")
	}
}

func TestGateway_HistoricalDailyDeterministic(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())
	ctx := context.Background()

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 7, 0, 0, 0, 0, time.UTC)

	first, err := gw.HistoricalDaily(ctx, "London", from, to)
	if err != nil {
		t.Fatalf("HistoricalDaily: %v", err)
	}
	if len(first.Days) != 7 {
		t.Fatalf("expected 7 days inclusive, got %d", len(first.Days))
	}
	// Day-of-month 3: max 23, min 13, avg 18, humidity 63, pressure 1016, precip 1.5.
	d := first.Days[2]
	if d.MaxTemperature != 23 || d.MinTemperature != 13 || d.AvgTemperature != 18 {
		t.Errorf("unexpected temps: %+v", d)
	}
	if d.AvgHumidity != 63 || d.AvgPressure != 1016 || d.Precipitation != 1.5 {
		t.Errorf("unexpected derived fields: %+v", d)
	}

	second, err := gw.HistoricalDaily(ctx, "London", from, to)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Days {
		if first.Days[i] != second.Days[i] {
			t.Fatalf("series must be deterministic, day %d differs", i)
		}
	}

	if _, err := gw.HistoricalDaily(ctx, "London", to, from); err == nil {
		t.Error("inverted range must error")
	}
}

func TestGateway_Summary(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())

	summary, err := gw.Summary(context.Background(), "London", "")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Current == nil || summary.Current.City != "London" {
		t.Error("summary missing current conditions")
	}
	if summary.Forecast == nil || len(summary.Forecast.Entries) == 0 {
		t.Error("summary missing forecast")
	}
	if summary.Alerts == nil || len(summary.Alerts.Alerts) != 1 {
		t.Error("summary missing alerts")
	}
}

func TestGateway_AllOperationsWriteRequestLog(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())
	logged := &captureWriter{}
	gw.SetRequestLog(logged)
	ctx := context.Background()

	if _, err := gw.CompareCities(ctx, []string{"London", "Paris"}); err != nil {
		t.Fatalf("CompareCities: %v", err)
	}
	if _, err := gw.Summary(ctx, "Berlin", ""); err != nil {
		t.Fatalf("Summary: %v", err)
	}

	ops := logged.operations()
	if ops[OpCompare] != 1 {
		t.Errorf("expected 1 %s entry, got %d", OpCompare, ops[OpCompare])
	}
	if ops[OpSummary] != 1 {
		t.Errorf("expected 1 %s entry, got %d", OpSummary, ops[OpSummary])
	}
	// The component lookups keep recording their own entries.
	if ops[OpCurrentWeather] != 3 {
		t.Errorf("expected 3 %s entries, got %d", OpCurrentWeather, ops[OpCurrentWeather])
	}
	if ops[OpForecast] != 1 || ops[OpAlerts] != 1 {
		t.Errorf("summary components missing from request log: %v", ops)
	}
}

func TestGateway_CompareCitiesLogsFailureWhenAllMiss(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())
	logged := &captureWriter{}
	gw.SetRequestLog(logged)

	if _, err := gw.CompareCities(context.Background(), []string{"Nowhere"}); !errors.Is(err, providers.ErrCityNotFound) {
		t.Fatalf("expected ErrCityNotFound, got %v", err)
	}
	if ops := logged.operations(); ops[OpCompare] != 1 {
		t.Errorf("failed comparison must still record an entry, got %v", ops)
	}
}

func TestGateway_Hooks(t *testing.T) {
	gw := newTestGateway(t, newFakeProvider())

	var mu sync.Mutex
	subjects := make(map[string]int)
	done := make(chan struct{}, 4)
	gw.AddHook(func(_ context.Context, subject string, _ map[string]interface{}) {
		mu.Lock()
		subjects[subject]++
		mu.Unlock()
		done <- struct{}{}
	})

	if _, err := gw.CurrentWeather(context.Background(), "London", "", false); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hook was not invoked")
	}
	mu.Lock()
	defer mu.Unlock()
	if subjects[SubjectRequestCompleted] == 0 {
		t.Error("expected a completed event")
	}
}
