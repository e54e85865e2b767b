// Package config holds the process-wide configuration for the SDK,
// loaded from environment variables with a viper bridge for file-based
// deployment configs.
package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config represents the global configuration for the investigation SDK
type Config struct {
	// Graph store configuration
	Graph struct {
		// Provider selects the backend ("weaviate" or "postgres")
		Provider string

		// Weaviate configuration
		Weaviate struct {
			Host        string
			Scheme      string
			APIKey      string
			ClassPrefix string
		}

		// Postgres configuration
		Postgres struct {
			ConnectionString string
			Table            string
		}
	}

	// Identity registry configuration
	Registry struct {
		// Provider selects the backend ("memory" or "redis")
		Provider string

		// Redis configuration
		Redis struct {
			URL      string
			Password string
			DB       int
			TTL      time.Duration
		}
	}

	// Scheduler configuration
	Scheduler struct {
		MaxDepth int
	}

	// Sources configuration
	Sources struct {
		CatalogPath string

		Breach struct {
			APIKey  string
			BaseURL string
			Timeout time.Duration
		}

		Enrich struct {
			APIKey  string
			BaseURL string
			Timeout time.Duration
		}

		Archive struct {
			BaseURL string
			Timeout time.Duration
		}
	}

	// Tracing configuration
	Tracing struct {
		OpenTelemetry struct {
			Enabled           bool
			ServiceName       string
			CollectorEndpoint string
		}
	}
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// Get returns the global configuration, loading it on first use.
func Get() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}

// Reload forces a fresh load from the environment.
func Reload() *Config {
	globalConfig = LoadFromEnv()
	return globalConfig
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	config := &Config{}

	// Graph store configuration
	config.Graph.Provider = getEnv("GRAPH_PROVIDER", "weaviate")
	config.Graph.Weaviate.Host = getEnv("WEAVIATE_HOST", "localhost:8080")
	config.Graph.Weaviate.Scheme = getEnv("WEAVIATE_SCHEME", "http")
	config.Graph.Weaviate.APIKey = getEnv("WEAVIATE_API_KEY", "")
	config.Graph.Weaviate.ClassPrefix = getEnv("WEAVIATE_CLASS_PREFIX", "Trail")
	config.Graph.Postgres.ConnectionString = getEnv("POSTGRES_URL", "")
	config.Graph.Postgres.Table = getEnv("POSTGRES_TABLE", "trailhound_nodes")

	// Identity registry configuration
	config.Registry.Provider = getEnv("REGISTRY_PROVIDER", "memory")
	config.Registry.Redis.URL = getEnv("REDIS_URL", "localhost:6379")
	config.Registry.Redis.Password = getEnv("REDIS_PASSWORD", "")
	config.Registry.Redis.DB = getEnvInt("REDIS_DB", 0)
	config.Registry.Redis.TTL = time.Duration(getEnvInt("REDIS_TTL_SECONDS", 0)) * time.Second

	// Scheduler configuration
	config.Scheduler.MaxDepth = getEnvInt("SCHEDULER_MAX_DEPTH", 3)

	// Sources configuration
	config.Sources.CatalogPath = getEnv("SOURCES_CATALOG", "")
	config.Sources.Breach.APIKey = getEnv("BREACH_API_KEY", "")
	config.Sources.Breach.BaseURL = getEnv("BREACH_BASE_URL", "")
	config.Sources.Breach.Timeout = time.Duration(getEnvInt("BREACH_TIMEOUT", 15)) * time.Second
	config.Sources.Enrich.APIKey = getEnv("ENRICH_API_KEY", "")
	config.Sources.Enrich.BaseURL = getEnv("ENRICH_BASE_URL", "")
	config.Sources.Enrich.Timeout = time.Duration(getEnvInt("ENRICH_TIMEOUT", 15)) * time.Second
	config.Sources.Archive.BaseURL = getEnv("ARCHIVE_BASE_URL", "")
	config.Sources.Archive.Timeout = time.Duration(getEnvInt("ARCHIVE_TIMEOUT", 30)) * time.Second

	// Tracing configuration
	config.Tracing.OpenTelemetry.Enabled = getEnvBool("OTEL_ENABLED", false)
	config.Tracing.OpenTelemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", "trailhound")
	config.Tracing.OpenTelemetry.CollectorEndpoint = getEnv("OTEL_COLLECTOR_ENDPOINT", "localhost:4317")

	return config
}

// MergeFromViper overlays file-based deployment configuration onto the
// process environment. Keys already present in the environment win, so
// local overrides take priority over the config file.
func MergeFromViper(v *viper.Viper) int {
	merged := 0
	for _, key := range v.AllKeys() {
		envKey := viperKeyToEnv(key)
		if os.Getenv(envKey) != "" {
			continue
		}
		if err := os.Setenv(envKey, v.GetString(key)); err == nil {
			merged++
		}
	}
	if merged > 0 {
		Reload()
	}
	return merged
}

func viperKeyToEnv(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '.' || c == '-':
			out = append(out, '_')
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
