package weather247

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// configSchema is the JSON Schema every loaded config must satisfy, over and
// above Go-level decoding. It catches typos in enum fields early instead of
// letting them surface as runtime fallbacks.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "server": {
      "type": "object",
      "properties": {
        "addr": {"type": "string"},
        "cors_origins": {"type": "array", "items": {"type": "string"}}
      }
    },
    "providers": {
      "type": "object",
      "properties": {
        "default": {"type": "string", "enum": ["", "openweather", "openmeteo"]},
        "openweather": {
          "type": "object",
          "properties": {"api_key": {"type": "string"}}
        },
        "openmeteo": {
          "type": "object",
          "properties": {"enabled": {"type": "boolean"}}
        }
      }
    },
    "cache": {
      "type": "object",
      "properties": {
        "backend": {"type": "string", "enum": ["", "memory", "redis", "none"]},
        "max_age_minutes": {"type": "integer", "minimum": 0},
        "sweep_interval_minutes": {"type": "integer", "minimum": 0},
        "redis": {
          "type": "object",
          "properties": {
            "addr": {"type": "string"},
            "password": {"type": "string"},
            "db": {"type": "integer", "minimum": 0}
          }
        }
      }
    },
    "stores": {
      "type": "object",
      "properties": {
        "preferences": {"$ref": "#/$defs/sqlTarget"},
        "request_log": {"$ref": "#/$defs/sqlTarget"}
      }
    },
    "rate_limit": {
      "type": "object",
      "properties": {
        "requests_per_second": {"type": "number", "minimum": 0},
        "burst": {"type": "integer", "minimum": 0}
      }
    }
  },
  "$defs": {
    "sqlTarget": {
      "type": "object",
      "properties": {
        "driver": {"type": "string", "enum": ["", "none", "sqlite", "postgres"]},
        "dsn": {"type": "string"}
      }
    }
  }
}`

// LoadConfig reads and parses a config file from the given path.
// Supported formats: JSON (.json), YAML (.yaml, .yml).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	var doc any
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateSchema(doc any) error {
	schema, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	if err := schema.Validate(normalizeYAML(doc)); err != nil {
		return fmt.Errorf("config schema validation: %w", err)
	}
	return nil
}

// normalizeYAML converts YAML-decoded values into the shapes jsonschema
// expects (map keys as strings).
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

// ValidateConfig validates a Config for correctness beyond schema shape.
func ValidateConfig(cfg Config) error {
	switch cfg.Cache.Backend {
	case "", CacheMemory, CacheNone:
	case CacheRedis:
		if cfg.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache backend %q requires redis.addr", CacheRedis)
		}
	default:
		return fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
	}

	// Providers may also be registered programmatically, so an empty provider
	// section is legal; only reject defaults that cannot resolve.
	switch cfg.Providers.Default {
	case "", "openweather", "openmeteo":
	default:
		return fmt.Errorf("unknown default provider: %q", cfg.Providers.Default)
	}

	for _, target := range []struct {
		name string
		t    SQLTarget
	}{
		{"stores.preferences", cfg.Stores.Preferences},
		{"stores.request_log", cfg.Stores.RequestLog},
	} {
		switch target.t.Driver {
		case "", "none", "sqlite":
		case "postgres":
			if target.t.DSN == "" {
				return fmt.Errorf("%s: postgres driver requires dsn", target.name)
			}
		default:
			return fmt.Errorf("%s: unknown driver %q", target.name, target.t.Driver)
		}
	}

	if cfg.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	return nil
}
