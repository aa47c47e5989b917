package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	openMeteoBaseURL = "https://api.open-meteo.com/v1"
	openMeteoGeoURL  = "https://geocoding-api.open-meteo.com/v1"
	openMeteoAirURL  = "https://air-quality-api.open-meteo.com/v1"
)

// OpenMeteoProvider implements the Provider interface for the keyless
// Open-Meteo API. It has no alert feed, so it does not implement
// AlertProvider.
type OpenMeteoProvider struct {
	Base
	baseURL string
	geoURL  string
	airURL  string
}

// NewOpenMeteo creates a new Open-Meteo provider. URL arguments override the
// production endpoints, mainly for tests; pass "" for defaults.
func NewOpenMeteo(baseURL, geoURL, airURL string) (*OpenMeteoProvider, error) {
	if baseURL == "" {
		baseURL = openMeteoBaseURL
	}
	if geoURL == "" {
		geoURL = openMeteoGeoURL
	}
	if airURL == "" {
		airURL = openMeteoAirURL
	}
	return &OpenMeteoProvider{
		Base: Base{
			name:       "openmeteo",
			httpClient: &http.Client{Timeout: 10 * time.Second},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		geoURL:  strings.TrimRight(geoURL, "/"),
		airURL:  strings.TrimRight(airURL, "/"),
	}, nil
}

type omGeocodeResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		CountryCode string  `json:"country_code"`
		Admin1      string  `json:"admin1"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	} `json:"results"`
}

// Geocode resolves a city name via the Open-Meteo geocoding API.
func (p *OpenMeteoProvider) Geocode(ctx context.Context, query, countryCode string) (*City, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("count", "5")

	var data omGeocodeResponse
	if err := p.getJSON(ctx, p.geoURL+"/search", params, &data); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", query, err)
	}
	for _, r := range data.Results {
		if countryCode != "" && !strings.EqualFold(r.CountryCode, countryCode) {
			continue
		}
		return &City{
			Name:    r.Name,
			Country: strings.ToUpper(r.CountryCode),
			State:   r.Admin1,
			Coord:   Coordinates{Lat: r.Latitude, Lon: r.Longitude},
		}, nil
	}
	return nil, fmt.Errorf("geocoding %q: %w", query, ErrCityNotFound)
}

type omCurrentResponse struct {
	Current struct {
		Time             int64   `json:"time"`
		Temperature      float64 `json:"temperature_2m"`
		Apparent         float64 `json:"apparent_temperature"`
		Humidity         int     `json:"relative_humidity_2m"`
		SurfacePressure  float64 `json:"surface_pressure"`
		WindSpeed        float64 `json:"wind_speed_10m"`
		WindDirection    float64 `json:"wind_direction_10m"`
		WeatherCode      int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Sunrise []int64 `json:"sunrise"`
		Sunset  []int64 `json:"sunset"`
	} `json:"daily"`
}

// CurrentWeather fetches current conditions in metric units.
func (p *OpenMeteoProvider) CurrentWeather(ctx context.Context, city, countryCode string) (*CurrentConditions, error) {
	loc, err := p.Geocode(ctx, city, countryCode)
	if err != nil {
		return nil, err
	}

	params := p.coordParams(loc.Coord)
	params.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,surface_pressure,wind_speed_10m,wind_direction_10m,weather_code")
	params.Set("daily", "sunrise,sunset")
	params.Set("forecast_days", "1")
	params.Set("wind_speed_unit", "ms")
	params.Set("timeformat", "unixtime")
	params.Set("timezone", "UTC")

	var data omCurrentResponse
	if err := p.getJSON(ctx, p.baseURL+"/forecast", params, &data); err != nil {
		return nil, fmt.Errorf("current weather for %q: %w", city, err)
	}

	cond := &CurrentConditions{
		City:        loc.Name,
		Country:     loc.Country,
		State:       loc.State,
		Coord:       loc.Coord,
		Temperature: data.Current.Temperature,
		FeelsLike:   data.Current.Apparent,
		Humidity:    data.Current.Humidity,
		Pressure:    int(data.Current.SurfacePressure),
		WindSpeed:   data.Current.WindSpeed,
		WindDegrees: data.Current.WindDirection,
		Description: wmoDescription(data.Current.WeatherCode),
		VisibilityM: 10000,
		ObservedAt:  time.Unix(data.Current.Time, 0).UTC(),
	}
	if len(data.Daily.Sunrise) > 0 {
		cond.Sunrise = data.Daily.Sunrise[0]
	}
	if len(data.Daily.Sunset) > 0 {
		cond.Sunset = data.Daily.Sunset[0]
	}
	return cond, nil
}

type omForecastResponse struct {
	Hourly struct {
		Time            []int64   `json:"time"`
		Temperature     []float64 `json:"temperature_2m"`
		Apparent        []float64 `json:"apparent_temperature"`
		Humidity        []int     `json:"relative_humidity_2m"`
		SurfacePressure []float64 `json:"surface_pressure"`
		WindSpeed       []float64 `json:"wind_speed_10m"`
		WeatherCode     []int     `json:"weather_code"`
		PrecipProb      []float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

// Forecast fetches a natively hourly 5-day forecast; no interpolation needed.
func (p *OpenMeteoProvider) Forecast(ctx context.Context, city string) (*Forecast, error) {
	loc, err := p.Geocode(ctx, city, "")
	if err != nil {
		return nil, err
	}

	params := p.coordParams(loc.Coord)
	params.Set("hourly", "temperature_2m,apparent_temperature,relative_humidity_2m,surface_pressure,wind_speed_10m,weather_code,precipitation_probability")
	params.Set("forecast_days", "5")
	params.Set("wind_speed_unit", "ms")
	params.Set("timeformat", "unixtime")
	params.Set("timezone", "UTC")

	var data omForecastResponse
	if err := p.getJSON(ctx, p.baseURL+"/forecast", params, &data); err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", city, err)
	}

	h := data.Hourly
	entries := make([]ForecastEntry, 0, len(h.Time))
	for i, ts := range h.Time {
		entry := ForecastEntry{Time: time.Unix(ts, 0).UTC()}
		if i < len(h.Temperature) {
			entry.Temperature = h.Temperature[i]
		}
		if i < len(h.Apparent) {
			entry.FeelsLike = h.Apparent[i]
		}
		if i < len(h.Humidity) {
			entry.Humidity = h.Humidity[i]
		}
		if i < len(h.SurfacePressure) {
			entry.Pressure = int(h.SurfacePressure[i])
		}
		if i < len(h.WindSpeed) {
			entry.WindSpeed = h.WindSpeed[i]
		}
		if i < len(h.WeatherCode) {
			entry.Description = wmoDescription(h.WeatherCode[i])
		}
		if i < len(h.PrecipProb) {
			entry.PrecipProbability = h.PrecipProb[i]
		}
		entries = append(entries, entry)
	}

	return &Forecast{City: loc.Name, Country: loc.Country, Entries: entries}, nil
}

type omAirQualityResponse struct {
	Current struct {
		Time  int64   `json:"time"`
		USAQI int     `json:"us_aqi"`
		PM10  float64 `json:"pm10"`
		PM25  float64 `json:"pm2_5"`
		CO    float64 `json:"carbon_monoxide"`
		NO2   float64 `json:"nitrogen_dioxide"`
		O3    float64 `json:"ozone"`
		SO2   float64 `json:"sulphur_dioxide"`
	} `json:"current"`
}

// AirQuality fetches pollution data. Open-Meteo reports a US EPA AQI
// directly, so the AQI field is populated here.
func (p *OpenMeteoProvider) AirQuality(ctx context.Context, coord Coordinates) (*AirQuality, error) {
	params := p.coordParams(coord)
	params.Set("current", "us_aqi,pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,ozone,sulphur_dioxide")
	params.Set("timeformat", "unixtime")
	params.Set("timezone", "UTC")

	var data omAirQualityResponse
	if err := p.getJSON(ctx, p.airURL+"/air-quality", params, &data); err != nil {
		return nil, fmt.Errorf("air quality at %.4f,%.4f: %w", coord.Lat, coord.Lon, err)
	}

	return &AirQuality{
		AQI: data.Current.USAQI,
		Components: map[string]float64{
			"pm10":  data.Current.PM10,
			"pm2_5": data.Current.PM25,
			"co":    data.Current.CO,
			"no2":   data.Current.NO2,
			"o3":    data.Current.O3,
			"so2":   data.Current.SO2,
		},
		MeasuredAt: time.Unix(data.Current.Time, 0).UTC(),
	}, nil
}

func (p *OpenMeteoProvider) coordParams(coord Coordinates) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	return params
}

// wmoDescription maps WMO weather interpretation codes to short descriptions.
func wmoDescription(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 2:
		return "partly cloudy"
	case code == 3:
		return "overcast"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code == 85 || code == 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}
