package providers

import (
	"context"
	"testing"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Geocode(context.Context, string, string) (*City, error) {
	return nil, ErrCityNotFound
}
func (s *stubProvider) CurrentWeather(context.Context, string, string) (*CurrentConditions, error) {
	return nil, ErrCityNotFound
}
func (s *stubProvider) Forecast(context.Context, string) (*Forecast, error) {
	return nil, ErrCityNotFound
}
func (s *stubProvider) AirQuality(context.Context, Coordinates) (*AirQuality, error) {
	return nil, ErrCityNotFound
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{name: "openweather"})
	r.Register(&stubProvider{name: "openmeteo"})

	p, ok := r.Get("openmeteo")
	if !ok || p.Name() != "openmeteo" {
		t.Fatalf("expected openmeteo, got %v (ok=%v)", p, ok)
	}
	if _, ok := r.Get("nonexistent"); ok {
		t.Error("expected miss for unknown provider")
	}
}

func TestRegistry_DefaultIsFirstRegistered(t *testing.T) {
	r := NewRegistry()
	if r.Default() != nil {
		t.Fatal("empty registry must have no default")
	}
	r.Register(&stubProvider{name: "openweather"})
	r.Register(&stubProvider{name: "openmeteo"})
	if got := r.Default().Name(); got != "openweather" {
		t.Errorf("expected first registered as default, got %s", got)
	}
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{name: "b"})
	r.Register(&stubProvider{name: "a"})
	r.Register(&stubProvider{name: "b"}) // re-register keeps position

	got := r.List()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("unexpected order: %v", got)
	}
}

func TestRegistry_MustGetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown provider")
		}
	}()
	NewRegistry().MustGet("missing")
}
