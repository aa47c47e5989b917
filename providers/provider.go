// Package providers defines the Provider interface and shared data types
// used across all upstream weather service implementations.
//
// The Provider interface must be implemented by any weather backend that
// integrates with the gateway. AlertProvider extends Provider for backends
// that expose severe-weather alerts.
//
// Core types: City, CurrentConditions, Forecast, AirQuality, Alert.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCityNotFound is returned when geocoding resolves no location for the
// requested city name.
var ErrCityNotFound = errors.New("city not found")

// ErrAlertsUnsupported is returned by Alerts when the upstream service has
// no alert feed.
var ErrAlertsUnsupported = errors.New("provider does not support weather alerts")

// StatusError reports a non-2xx response from an upstream weather API.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Provider defines the interface that all weather providers must implement.
type Provider interface {
	Name() string
	// Geocode resolves a city name (optionally qualified by an ISO country
	// code) to coordinates. Returns ErrCityNotFound when nothing matches.
	Geocode(ctx context.Context, query, countryCode string) (*City, error)
	// CurrentWeather fetches current conditions for a city. The AQI field is
	// left zero; the gateway enriches it via AirQuality.
	CurrentWeather(ctx context.Context, city, countryCode string) (*CurrentConditions, error)
	// Forecast fetches an hourly forecast for a city.
	Forecast(ctx context.Context, city string) (*Forecast, error)
	// AirQuality fetches pollution data for coordinates.
	AirQuality(ctx context.Context, coord Coordinates) (*AirQuality, error)
}

// AlertProvider is an optional interface for providers with an alert feed.
type AlertProvider interface {
	Provider
	Alerts(ctx context.Context, city string) (*AlertReport, error)
}

// FetchAlerts returns the alert report from p, or ErrAlertsUnsupported when p
// does not implement AlertProvider.
func FetchAlerts(ctx context.Context, p Provider, city string) (*AlertReport, error) {
	ap, ok := p.(AlertProvider)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.Name(), ErrAlertsUnsupported)
	}
	return ap.Alerts(ctx, city)
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// City is a geocoded location.
type City struct {
	Name    string      `json:"name"`
	Country string      `json:"country"`
	State   string      `json:"state,omitempty"`
	Coord   Coordinates `json:"coordinates"`
}

// CurrentConditions is a snapshot of current weather for a city.
// Units: metric (°C, m/s, hPa, metres); Sunrise/Sunset are Unix timestamps.
type CurrentConditions struct {
	City          string      `json:"city"`
	Country       string      `json:"country"`
	State         string      `json:"state,omitempty"`
	Coord         Coordinates `json:"coordinates"`
	Temperature   float64     `json:"temperature"`
	FeelsLike     float64     `json:"feels_like"`
	Humidity      int         `json:"humidity"`
	Pressure      int         `json:"pressure"`
	WindSpeed     float64     `json:"wind_speed"`
	WindDegrees   float64     `json:"wind_direction"`
	WindCompass   string      `json:"wind_compass,omitempty"`
	Description   string      `json:"description"`
	Icon          string      `json:"icon"`
	VisibilityM   int         `json:"visibility"`
	AQI           int         `json:"aqi"`
	AQICategory   string      `json:"aqi_category,omitempty"`
	Sunrise       int64       `json:"sunrise"`
	Sunset        int64       `json:"sunset"`
	ObservedAt    time.Time   `json:"timestamp"`
}

// ForecastEntry is one forecast slot.
type ForecastEntry struct {
	Time              time.Time `json:"datetime"`
	Temperature       float64   `json:"temperature"`
	FeelsLike         float64   `json:"feels_like"`
	Humidity          int       `json:"humidity"`
	Pressure          int       `json:"pressure"`
	WindSpeed         float64   `json:"wind_speed"`
	Description       string    `json:"description"`
	Icon              string    `json:"icon"`
	PrecipProbability float64   `json:"pop"`
}

// Forecast is an hourly forecast series for a city.
type Forecast struct {
	City    string          `json:"city"`
	Country string          `json:"country"`
	Entries []ForecastEntry `json:"forecasts"`
}

// AirQuality carries pollution data for a location.
type AirQuality struct {
	// AQI is on the US EPA 0..500 scale.
	AQI int `json:"aqi"`
	// PollutionIndex is the raw upstream index where the provider reports a
	// coarse scale (OpenWeather: 1..5); zero when unavailable.
	PollutionIndex int                `json:"pollution_index,omitempty"`
	Components     map[string]float64 `json:"components"`
	MeasuredAt     time.Time          `json:"timestamp"`
}

// Alert is one severe-weather alert.
type Alert struct {
	Event       string   `json:"event"`
	Description string   `json:"description"`
	Start       int64    `json:"start"`
	End         int64    `json:"end"`
	Tags        []string `json:"tags,omitempty"`
}

// AlertReport is the alert set for a city.
type AlertReport struct {
	City    string  `json:"city"`
	Country string  `json:"country"`
	Alerts  []Alert `json:"alerts"`
}

// ProviderSource is a read-only view over a collection of registered
// providers. Both *Registry and *Gateway expose provider info through it, so
// handlers that only need lookups can accept a ProviderSource instead of a
// concrete *Registry.
type ProviderSource interface {
	Get(name string) (Provider, bool)
	List() []string
}
