package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	weather247 "github.com/zaheeruldin978/weather247"
	"github.com/zaheeruldin978/weather247/internal/prefstore"
	"github.com/zaheeruldin978/weather247/providers"
)

// stubProvider serves canned payloads for router tests.
type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Geocode(_ context.Context, query, _ string) (*providers.City, error) {
	if strings.EqualFold(query, "atlantis") {
		return nil, providers.ErrCityNotFound
	}
	return &providers.City{Name: query, Country: "GB", Coord: providers.Coordinates{Lat: 51.5, Lon: -0.12}}, nil
}

func (s stubProvider) CurrentWeather(ctx context.Context, city, country string) (*providers.CurrentConditions, error) {
	loc, err := s.Geocode(ctx, city, country)
	if err != nil {
		return nil, err
	}
	return &providers.CurrentConditions{
		City:        loc.Name,
		Country:     loc.Country,
		Coord:       loc.Coord,
		Temperature: 21.3,
		Humidity:    55,
		WindDegrees: 180,
		Description: "clear sky",
		ObservedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (s stubProvider) Forecast(ctx context.Context, city string) (*providers.Forecast, error) {
	loc, err := s.Geocode(ctx, city, "")
	if err != nil {
		return nil, err
	}
	return &providers.Forecast{
		City:    loc.Name,
		Country: loc.Country,
		Entries: []providers.ForecastEntry{{Temperature: 22.0, Description: "clear sky"}},
	}, nil
}

func (stubProvider) AirQuality(context.Context, providers.Coordinates) (*providers.AirQuality, error) {
	return &providers.AirQuality{AQI: 42, Components: map[string]float64{"pm2_5": 8.1}}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gw, err := weather247.New(weather247.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	gw.RegisterProvider(stubProvider{})
	srv := httptest.NewServer(newRouter(gw, prefstore.NewMemoryStore(), nil, weather247.RateLimitConfig{}))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", path, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding %s response: %v", path, err)
	}
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCurrentWeatherEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv, "/api/current-weather?city=Paris", http.StatusOK)
	if body["city"] != "Paris" {
		t.Errorf("city = %v", body["city"])
	}
	if body["aqi"] != float64(42) {
		t.Errorf("aqi = %v", body["aqi"])
	}
	if body["wind_compass"] != "S" {
		t.Errorf("wind_compass = %v", body["wind_compass"])
	}
}

func TestCurrentWeatherDefaultsToLondon(t *testing.T) {
	srv := newTestServer(t)
	body := getJSON(t, srv, "/api/current-weather", http.StatusOK)
	if body["city"] != "London" {
		t.Errorf("city = %v", body["city"])
	}
}

func TestCurrentWeatherUnknownCity(t *testing.T) {
	srv := newTestServer(t)
	body := getJSON(t, srv, "/api/current-weather?city=Atlantis", http.StatusNotFound)
	if body["error"] != "City not found or API error" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestCityListEndpoint(t *testing.T) {
	srv := newTestServer(t)
	body := getJSON(t, srv, "/api/city-list", http.StatusOK)
	cities, ok := body["cities"].([]any)
	if !ok || len(cities) != 20 {
		t.Fatalf("expected 20 cities, got %v", body["cities"])
	}
	first, _ := cities[0].(map[string]any)
	if first["name"] != "London" {
		t.Errorf("first city = %v", first)
	}
}

func TestProviderListEndpoint(t *testing.T) {
	srv := newTestServer(t)
	body := getJSON(t, srv, "/api/providers", http.StatusOK)
	names, ok := body["providers"].([]any)
	if !ok || len(names) != 1 || names[0] != "stub" {
		t.Errorf("providers = %v", body["providers"])
	}
}

func TestWeatherAlertsEndpoint(t *testing.T) {
	// stubProvider has no alert feed; the response degrades to an empty list.
	srv := newTestServer(t)
	body := getJSON(t, srv, "/api/weather-alerts?city=Paris", http.StatusOK)
	alerts, ok := body["alerts"].([]any)
	if !ok || len(alerts) != 0 {
		t.Errorf("alerts = %v", body["alerts"])
	}
}

func TestCompareCitiesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	body := getJSON(t, srv, "/api/compare-cities?cities=Paris,Berlin", http.StatusOK)
	cmp, ok := body["comparison"].(map[string]any)
	if !ok || len(cmp) != 2 {
		t.Fatalf("comparison = %v", body["comparison"])
	}
	if _, ok := cmp["Berlin"]; !ok {
		t.Error("Berlin missing from comparison")
	}
}

func TestHistoricalWeatherEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv, "/api/historical-weather?city=Paris&start_date=2026-07-01&end_date=2026-07-03", http.StatusOK)
	days, ok := body["historical_data"].([]any)
	if !ok || len(days) != 3 {
		t.Fatalf("historical_data = %v", body["historical_data"])
	}

	bad := getJSON(t, srv, "/api/historical-weather?start_date=not-a-date", http.StatusBadRequest)
	if bad["error"] == nil {
		t.Error("expected an error payload")
	}
}

func TestSearchCityEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/search-city", "application/json", strings.NewReader(`{"query":"Paris"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["found"] != true {
		t.Errorf("found = %v", body["found"])
	}

	short, err := http.Post(srv.URL+"/api/search-city", "application/json", strings.NewReader(`{"query":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer short.Body.Close()
	if short.StatusCode != http.StatusBadRequest {
		t.Errorf("short query status = %d", short.StatusCode)
	}

	missing, err := http.Post(srv.URL+"/api/search-city", "application/json", strings.NewReader(`{"query":"Atlantis"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusOK {
		t.Errorf("unknown city status = %d, want 200 with found=false", missing.StatusCode)
	}
}

func TestThemePreferenceEndpoints(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv, "/api/preferences/theme", http.StatusOK)
	if body["theme"] != "light" {
		t.Errorf("default theme = %v", body["theme"])
	}

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/preferences/theme", strings.NewReader(`{"theme":"dark"}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	body = getJSON(t, srv, "/api/preferences/theme", http.StatusOK)
	if body["theme"] != "dark" {
		t.Errorf("theme after PUT = %v", body["theme"])
	}

	bad, err := http.NewRequest(http.MethodPut, srv.URL+"/api/preferences/theme", strings.NewReader(`{"theme":"sepia"}`))
	if err != nil {
		t.Fatal(err)
	}
	badResp, err := http.DefaultClient.Do(bad)
	if err != nil {
		t.Fatal(err)
	}
	defer badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid theme status = %d", badResp.StatusCode)
	}
}

func TestWeatherSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	body := getJSON(t, srv, "/api/weather-summary?city=Paris", http.StatusOK)
	if body["current"] == nil {
		t.Error("summary missing current")
	}
	if body["forecast"] == nil {
		t.Error("summary missing forecast")
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/current-weather", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin header")
	}
}
