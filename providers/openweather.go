package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	openWeatherGeoURL  = "https://api.openweathermap.org/geo/1.0"
)

// OpenWeatherProvider implements the Provider interface for the OpenWeather
// REST API (current weather, 5-day/3-hour forecast, air pollution, geocoding,
// and One Call alerts).
type OpenWeatherProvider struct {
	Base
	baseURL string
	geoURL  string
}

// NewOpenWeather creates a new OpenWeather provider. baseURL and geoURL
// override the production endpoints, mainly for tests; pass "" for defaults.
func NewOpenWeather(apiKey, baseURL, geoURL string) (*OpenWeatherProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openweather API key is required")
	}
	if baseURL == "" {
		baseURL = openWeatherBaseURL
	}
	if geoURL == "" {
		geoURL = openWeatherGeoURL
	}
	return &OpenWeatherProvider{
		Base: Base{
			name:       "openweather",
			apiKey:     apiKey,
			httpClient: &http.Client{Timeout: 10 * time.Second},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		geoURL:  strings.TrimRight(geoURL, "/"),
	}, nil
}

type owGeocodeResult struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Geocode resolves a city name to coordinates via the OpenWeather geocoding
// API. The first match wins.
func (p *OpenWeatherProvider) Geocode(ctx context.Context, query, countryCode string) (*City, error) {
	q := query
	if countryCode != "" {
		q = query + "," + countryCode
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("limit", "1")
	params.Set("appid", p.apiKey)

	var results []owGeocodeResult
	if err := p.getJSON(ctx, p.geoURL+"/direct", params, &results); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", query, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("geocoding %q: %w", query, ErrCityNotFound)
	}
	r := results[0]
	return &City{
		Name:    r.Name,
		Country: r.Country,
		State:   r.State,
		Coord:   Coordinates{Lat: r.Lat, Lon: r.Lon},
	}, nil
}

type owWeatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Visibility int `json:"visibility"`
	Sys        struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
	Dt int64 `json:"dt"`
}

// CurrentWeather fetches current conditions. The city name is geocoded first;
// metric units throughout.
func (p *OpenWeatherProvider) CurrentWeather(ctx context.Context, city, countryCode string) (*CurrentConditions, error) {
	loc, err := p.Geocode(ctx, city, countryCode)
	if err != nil {
		return nil, err
	}

	params := p.coordParams(loc.Coord)
	params.Set("units", "metric")
	params.Set("lang", "en")

	var data owWeatherResponse
	if err := p.getJSON(ctx, p.baseURL+"/weather", params, &data); err != nil {
		return nil, fmt.Errorf("current weather for %q: %w", city, err)
	}

	cond := &CurrentConditions{
		City:        loc.Name,
		Country:     loc.Country,
		State:       loc.State,
		Coord:       loc.Coord,
		Temperature: data.Main.Temp,
		FeelsLike:   data.Main.FeelsLike,
		Humidity:    data.Main.Humidity,
		Pressure:    data.Main.Pressure,
		WindSpeed:   data.Wind.Speed,
		WindDegrees: data.Wind.Deg,
		VisibilityM: data.Visibility,
		Sunrise:     data.Sys.Sunrise,
		Sunset:      data.Sys.Sunset,
		ObservedAt:  time.Unix(data.Dt, 0).UTC(),
	}
	if cond.VisibilityM == 0 {
		cond.VisibilityM = 10000
	}
	if len(data.Weather) > 0 {
		cond.Description = data.Weather[0].Description
		cond.Icon = data.Weather[0].Icon
	}
	return cond, nil
}

type owForecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  int     `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// Forecast fetches the 5-day/3-hour forecast and expands it to an hourly
// series by linear interpolation between slots.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, city string) (*Forecast, error) {
	loc, err := p.Geocode(ctx, city, "")
	if err != nil {
		return nil, err
	}

	params := p.coordParams(loc.Coord)
	params.Set("units", "metric")
	params.Set("lang", "en")

	var data owForecastResponse
	if err := p.getJSON(ctx, p.baseURL+"/forecast", params, &data); err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", city, err)
	}

	base := make([]ForecastEntry, 0, len(data.List))
	for _, item := range data.List {
		entry := ForecastEntry{
			Time:              time.Unix(item.Dt, 0).UTC(),
			Temperature:       item.Main.Temp,
			FeelsLike:         item.Main.FeelsLike,
			Humidity:          item.Main.Humidity,
			Pressure:          item.Main.Pressure,
			WindSpeed:         item.Wind.Speed,
			PrecipProbability: item.Pop * 100,
		}
		if len(item.Weather) > 0 {
			entry.Description = item.Weather[0].Description
			entry.Icon = item.Weather[0].Icon
		}
		base = append(base, entry)
	}

	return &Forecast{
		City:    loc.Name,
		Country: loc.Country,
		Entries: interpolateHourly(base),
	}, nil
}

type owPollutionResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}

// AirQuality fetches pollution data. OpenWeather reports a coarse 1..5 index,
// which is kept in PollutionIndex; AQI is left for the caller to derive.
func (p *OpenWeatherProvider) AirQuality(ctx context.Context, coord Coordinates) (*AirQuality, error) {
	var data owPollutionResponse
	if err := p.getJSON(ctx, p.baseURL+"/air_pollution", p.coordParams(coord), &data); err != nil {
		return nil, fmt.Errorf("air quality at %.4f,%.4f: %w", coord.Lat, coord.Lon, err)
	}
	if len(data.List) == 0 {
		return nil, fmt.Errorf("air quality at %.4f,%.4f: empty pollution list", coord.Lat, coord.Lon)
	}
	first := data.List[0]
	return &AirQuality{
		PollutionIndex: first.Main.AQI,
		Components:     first.Components,
		MeasuredAt:     time.Unix(first.Dt, 0).UTC(),
	}, nil
}

type owOneCallResponse struct {
	Alerts []struct {
		Event       string   `json:"event"`
		Description string   `json:"description"`
		Start       int64    `json:"start"`
		End         int64    `json:"end"`
		Tags        []string `json:"tags"`
	} `json:"alerts"`
}

// Alerts fetches severe-weather alerts from the One Call API. Alert coverage
// depends on the API subscription; callers should treat 401/403 StatusErrors
// as "no alert feed" rather than hard failures.
func (p *OpenWeatherProvider) Alerts(ctx context.Context, city string) (*AlertReport, error) {
	loc, err := p.Geocode(ctx, city, "")
	if err != nil {
		return nil, err
	}

	params := p.coordParams(loc.Coord)
	params.Set("exclude", "current,minutely,hourly,daily")
	params.Set("units", "metric")

	var data owOneCallResponse
	if err := p.getJSON(ctx, p.baseURL+"/onecall", params, &data); err != nil {
		return nil, fmt.Errorf("alerts for %q: %w", city, err)
	}

	report := &AlertReport{City: loc.Name, Country: loc.Country, Alerts: []Alert{}}
	for _, a := range data.Alerts {
		report.Alerts = append(report.Alerts, Alert{
			Event:       a.Event,
			Description: a.Description,
			Start:       a.Start,
			End:         a.End,
			Tags:        a.Tags,
		})
	}
	return report, nil
}

func (p *OpenWeatherProvider) coordParams(coord Coordinates) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	params.Set("appid", p.apiKey)
	return params
}

// IsSubscriptionError reports whether err is an upstream 401/403, which the
// One Call alert endpoint returns for keys without that product.
func IsSubscriptionError(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
	}
	return false
}
