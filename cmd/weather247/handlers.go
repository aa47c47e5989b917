package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	weather247 "github.com/zaheeruldin978/weather247"
	"github.com/zaheeruldin978/weather247/internal/logging"
	"github.com/zaheeruldin978/weather247/internal/prefstore"
	"github.com/zaheeruldin978/weather247/providers"
)

// popularCities is the static city table served by /api/city-list.
var popularCities = []map[string]string{
	{"name": "London", "country": "GB", "region": "Europe"},
	{"name": "New York", "country": "US", "region": "North America"},
	{"name": "Tokyo", "country": "JP", "region": "Asia"},
	{"name": "Sydney", "country": "AU", "region": "Oceania"},
	{"name": "Mumbai", "country": "IN", "region": "Asia"},
	{"name": "Paris", "country": "FR", "region": "Europe"},
	{"name": "Berlin", "country": "DE", "region": "Europe"},
	{"name": "Rome", "country": "IT", "region": "Europe"},
	{"name": "Moscow", "country": "RU", "region": "Europe"},
	{"name": "Beijing", "country": "CN", "region": "Asia"},
	{"name": "Cairo", "country": "EG", "region": "Africa"},
	{"name": "Rio de Janeiro", "country": "BR", "region": "South America"},
	{"name": "Toronto", "country": "CA", "region": "North America"},
	{"name": "Dubai", "country": "AE", "region": "Asia"},
	{"name": "Singapore", "country": "SG", "region": "Asia"},
	{"name": "Seoul", "country": "KR", "region": "Asia"},
	{"name": "Mexico City", "country": "MX", "region": "North America"},
	{"name": "Bangkok", "country": "TH", "region": "Asia"},
	{"name": "Istanbul", "country": "TR", "region": "Europe"},
	{"name": "Lagos", "country": "NG", "region": "Africa"},
}

type apiHandlers struct {
	gw      *weather247.Gateway
	prefs   prefstore.Store
	sources providers.ProviderSource
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeOpError maps gateway errors to HTTP statuses: unknown city → 404,
// bad input → 400, anything else → 500.
func writeOpError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	switch {
	case errors.Is(err, providers.ErrCityNotFound):
		writeError(w, http.StatusNotFound, "City not found or API error")
	case errors.Is(err, weather247.ErrQueryTooShort):
		writeError(w, http.StatusBadRequest, "Search query too short")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// cityParam returns the ?city= parameter, defaulting to London like the
// dashboards expect.
func cityParam(r *http.Request) string {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		city = "London"
	}
	return city
}

func boolParam(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (h *apiHandlers) currentWeather(w http.ResponseWriter, r *http.Request) {
	cond, err := h.gw.CurrentWeather(r.Context(), cityParam(r), r.URL.Query().Get("country"), boolParam(r, "force"))
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cond)
}

func (h *apiHandlers) weatherForecast(w http.ResponseWriter, r *http.Request) {
	fc, err := h.gw.Forecast(r.Context(), cityParam(r))
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

func (h *apiHandlers) historicalWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// Default to the trailing five years when no range is given.
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(-5, 0, 0)
	if s := q.Get("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if s := q.Get("end_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	report, err := h.gw.HistoricalDaily(r.Context(), cityParam(r), from, to)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *apiHandlers) cityList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cities": popularCities})
}

func (h *apiHandlers) providerList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.sources.List()})
}

func (h *apiHandlers) weatherAlerts(w http.ResponseWriter, r *http.Request) {
	report, err := h.gw.Alerts(r.Context(), cityParam(r))
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *apiHandlers) compareCities(w http.ResponseWriter, r *http.Request) {
	citiesParam := r.URL.Query().Get("cities")
	if citiesParam == "" {
		citiesParam = "London,New York,Tokyo"
	}
	report, err := h.gw.CompareCities(r.Context(), strings.Split(citiesParam, ","))
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *apiHandlers) airQuality(w http.ResponseWriter, r *http.Request) {
	report, err := h.gw.AirQuality(r.Context(), cityParam(r), r.URL.Query().Get("country"))
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *apiHandlers) weatherSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.gw.Summary(r.Context(), cityParam(r), r.URL.Query().Get("country"))
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *apiHandlers) searchCity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := h.gw.SearchCity(r.Context(), body.Query)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	if !result.Found {
		writeJSON(w, http.StatusOK, map[string]any{"found": false, "message": "City not found"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *apiHandlers) getTheme(w http.ResponseWriter, r *http.Request) {
	theme := h.prefs.Get(r.Context(), prefstore.ThemeKey, "light")
	writeJSON(w, http.StatusOK, map[string]string{"theme": theme})
}

func (h *apiHandlers) putTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Theme != "light" && body.Theme != "dark" {
		writeError(w, http.StatusBadRequest, `theme must be "light" or "dark"`)
		return
	}
	h.prefs.Set(r.Context(), prefstore.ThemeKey, body.Theme)
	writeJSON(w, http.StatusOK, map[string]string{"theme": body.Theme})
}
