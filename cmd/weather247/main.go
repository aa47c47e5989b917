package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	weather247 "github.com/zaheeruldin978/weather247"
	"github.com/zaheeruldin978/weather247/internal/cache"
	"github.com/zaheeruldin978/weather247/internal/logging"
	"github.com/zaheeruldin978/weather247/internal/prefstore"
	"github.com/zaheeruldin978/weather247/internal/ratelimit"
	"github.com/zaheeruldin978/weather247/internal/requestlog"
	"github.com/zaheeruldin978/weather247/internal/version"
	"github.com/zaheeruldin978/weather247/providers"
)

func main() {
	// Load config if WEATHER_CONFIG is set; otherwise run from env vars.
	var cfg weather247.Config
	if cfgPath := os.Getenv("WEATHER_CONFIG"); cfgPath != "" {
		loaded, err := weather247.LoadConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
		log.Printf("Config loaded from %s", cfgPath)
	}

	// Env overrides keep container deployments config-file free.
	if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" {
		cfg.Providers.OpenWeather.APIKey = key
	}
	if os.Getenv("OPENMETEO_ENABLED") != "" {
		cfg.Providers.OpenMeteo.Enabled = true
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Backend = weather247.CacheRedis
		cfg.Cache.Redis.Addr = addr
		cfg.Cache.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.Providers.OpenWeather.APIKey == "" && !cfg.Providers.OpenMeteo.Enabled {
		// Open-Meteo needs no key, so an unconfigured deployment still serves.
		cfg.Providers.OpenMeteo.Enabled = true
		log.Println("No provider configured; enabling openmeteo (keyless)")
	}

	gw, err := weather247.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	if key := cfg.Providers.OpenWeather.APIKey; key != "" {
		p, err := providers.NewOpenWeather(key, "", "")
		if err != nil {
			log.Fatalf("openweather provider: %v", err)
		}
		gw.RegisterProvider(p)
		log.Println("Provider registered: openweather")
	}
	if cfg.Providers.OpenMeteo.Enabled {
		p, err := providers.NewOpenMeteo("", "", "")
		if err != nil {
			log.Fatalf("openmeteo provider: %v", err)
		}
		gw.RegisterProvider(p)
		log.Println("Provider registered: openmeteo")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache backend.
	switch cfg.Cache.Backend {
	case weather247.CacheRedis:
		rc, err := cache.NewRedis(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB,
			time.Duration(cfg.Cache.MaxAgeMinutes)*time.Minute)
		if err != nil {
			log.Fatalf("redis cache: %v", err)
		}
		defer func() { _ = rc.Close() }()
		gw.SetCache(rc)
		log.Printf("Cache backend: redis (%s)", cfg.Cache.Redis.Addr)
	case weather247.CacheNone:
		log.Println("Cache backend: disabled")
	default:
		go gw.StartSweeper(ctx)
		log.Println("Cache backend: memory")
	}

	// Preference store.
	var prefs prefstore.Store = prefstore.NewMemoryStore()
	switch cfg.Stores.Preferences.Driver {
	case "sqlite":
		store, err := prefstore.NewSQLiteStore(cfg.Stores.Preferences.DSN)
		if err != nil {
			log.Fatalf("preference store: %v", err)
		}
		defer func() { _ = store.Close() }()
		prefs = store
	case "postgres":
		store, err := prefstore.NewPostgresStore(cfg.Stores.Preferences.DSN)
		if err != nil {
			log.Fatalf("preference store: %v", err)
		}
		defer func() { _ = store.Close() }()
		prefs = store
	}

	// Request log.
	switch cfg.Stores.RequestLog.Driver {
	case "sqlite":
		writer, err := requestlog.NewSQLiteWriter(cfg.Stores.RequestLog.DSN)
		if err != nil {
			log.Fatalf("request log: %v", err)
		}
		defer func() { _ = writer.Close() }()
		gw.SetRequestLog(writer)
	case "postgres":
		writer, err := requestlog.NewPostgresWriter(cfg.Stores.RequestLog.DSN)
		if err != nil {
			log.Fatalf("request log: %v", err)
		}
		defer func() { _ = writer.Close() }()
		gw.SetRequestLog(writer)
	}

	corsOrigins := cfg.Server.CORSOrigins
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsOrigins = strings.Split(origins, ",")
	}

	r := newRouter(gw, prefs, corsOrigins, cfg.RateLimit)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	go func() {
		<-ctx.Done()
		log.Println("Shutting down gracefully…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Weather247 %s listening on %s (%d provider(s))", version.Short(), addr, len(gw.List()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		log.Fatalf("Server error: %v", err) //nolint:gocritic
	}
	log.Println("Server stopped.")
}

// newRouter builds the HTTP router.
func newRouter(gw *weather247.Gateway, prefs prefstore.Store, corsOrigins []string, rl weather247.RateLimitConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(corsMiddleware(corsOrigins...))
	if rl.RequestsPerSecond > 0 {
		r.Use(ratelimit.Middleware(ratelimit.NewStore(rl.RequestsPerSecond, rl.Burst)))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	h := &apiHandlers{gw: gw, prefs: prefs, sources: gw}
	r.Route("/api", func(r chi.Router) {
		r.Get("/current-weather", h.currentWeather)
		r.Get("/providers", h.providerList)
		r.Get("/weather-forecast", h.weatherForecast)
		r.Get("/historical-weather", h.historicalWeather)
		r.Get("/city-list", h.cityList)
		r.Get("/weather-alerts", h.weatherAlerts)
		r.Get("/compare-cities", h.compareCities)
		r.Get("/air-quality", h.airQuality)
		r.Get("/weather-summary", h.weatherSummary)
		r.Post("/search-city", h.searchCity)
		r.Get("/preferences/theme", h.getTheme)
		r.Put("/preferences/theme", h.putTheme)
	})

	return r
}
