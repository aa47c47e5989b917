package weather247

// Config holds the configuration for the Weather247 gateway.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `json:"server" yaml:"server"`
	// Providers selects and configures upstream weather services.
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	// Cache configures the response cache.
	Cache CacheConfig `json:"cache" yaml:"cache"`
	// Stores configures the preference store and request log.
	Stores StoresConfig `json:"stores,omitempty" yaml:"stores,omitempty"`
	// RateLimit configures per-client request limiting.
	RateLimit RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// CORSOrigins lists allowed origins; empty means allow any.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

// ProvidersConfig selects upstream weather services.
type ProvidersConfig struct {
	// Default names the provider used when a request does not pick one.
	// Empty means the first registered provider.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
	// OpenWeather holds the OpenWeather API credentials. The provider is
	// registered only when the key is set.
	OpenWeather OpenWeatherConfig `json:"openweather,omitempty" yaml:"openweather,omitempty"`
	// OpenMeteo enables the keyless Open-Meteo provider.
	OpenMeteo OpenMeteoConfig `json:"openmeteo,omitempty" yaml:"openmeteo,omitempty"`
}

// OpenWeatherConfig holds OpenWeather credentials.
type OpenWeatherConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// OpenMeteoConfig enables the Open-Meteo provider.
type OpenMeteoConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// CacheBackend names a response cache implementation.
type CacheBackend string

// Supported cache backends.
const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
	CacheNone   CacheBackend = "none"
)

// CacheConfig configures the response cache.
type CacheConfig struct {
	// Backend is "memory" (default), "redis", or "none".
	Backend CacheBackend `json:"backend,omitempty" yaml:"backend,omitempty"`
	// MaxAgeMinutes is the entry TTL in minutes (default 10).
	MaxAgeMinutes int `json:"max_age_minutes,omitempty" yaml:"max_age_minutes,omitempty"`
	// SweepIntervalMinutes is how often the memory backend scans for expired
	// entries (default 5).
	SweepIntervalMinutes int `json:"sweep_interval_minutes,omitempty" yaml:"sweep_interval_minutes,omitempty"`
	// Redis configures the redis backend.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
}

// StoresConfig configures SQL-backed persistence.
type StoresConfig struct {
	Preferences SQLTarget `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	RequestLog  SQLTarget `json:"request_log,omitempty" yaml:"request_log,omitempty"`
}

// SQLTarget selects a SQL backend for a store.
type SQLTarget struct {
	// Driver is "sqlite", "postgres", or "none" (default none).
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// RateLimitConfig configures the per-client HTTP limiter. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
	Burst             int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}
