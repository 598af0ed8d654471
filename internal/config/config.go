// Package config owns the environment-derived configuration surface:
// workspace credentials, database identifiers, rate-limit and cache tuning,
// feature flags and the HTTP listener settings.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"storygraph-backend/pkg/errors"
)

// Environment is the execution mode the service runs in.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

// Config holds all application configuration. Values are resolved once at
// startup; treat the struct as frozen after Load returns.
type Config struct {
	// Server configuration
	Port        int         `yaml:"port"`
	Environment Environment `yaml:"environment"`
	LogLevel    string      `yaml:"logLevel"`
	CORSOrigins []string    `yaml:"corsOrigins"`

	// Upstream workspace (Notion) configuration
	NotionAPIKey  string `yaml:"notionApiKey"`
	NotionBaseURL string `yaml:"notionBaseUrl"`
	NotionVersion string `yaml:"notionVersion"`

	// The four source databases, keyed by entity kind.
	CharactersDBID string `yaml:"charactersDbId"`
	ElementsDBID   string `yaml:"elementsDbId"`
	PuzzlesDBID    string `yaml:"puzzlesDbId"`
	TimelineDBID   string `yaml:"timelineDbId"`

	// Rate limiting: the reservoir is refilled as a whole every interval.
	RateLimitReservoir int           `yaml:"rateLimitReservoir"`
	RateLimitInterval  time.Duration `yaml:"rateLimitInterval"`
	UpstreamTimeout    time.Duration `yaml:"upstreamTimeout"`
	MaxRetries         int           `yaml:"maxRetries"`

	// Cache tuning
	CacheTTL           time.Duration `yaml:"cacheTtl"`
	CacheCleanupPeriod time.Duration `yaml:"cacheCleanupPeriod"`
	CacheMaxEntries    int           `yaml:"cacheMaxEntries"`

	// Request handling
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// Feature flags
	EnableCaching   bool `yaml:"enableCaching"`
	EnableRateLimit bool `yaml:"enableRateLimit"`
	EnableMetrics   bool `yaml:"enableMetrics"`
	EnableTracing   bool `yaml:"enableTracing"`
	EnableCSRF      bool `yaml:"enableCsrf"`

	// Tracing
	TracingEndpoint string `yaml:"tracingEndpoint"`

	// LoadedFrom records where configuration came from, for startup logs.
	LoadedFrom []string `yaml:"-"`
}

// LoadConfig loads configuration from environment variables, applying
// defaults suitable for local development.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 3001),
		Environment: Environment(getEnv("ENVIRONMENT", string(Development))),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		NotionAPIKey:  getEnv("NOTION_API_KEY", ""),
		NotionBaseURL: getEnv("NOTION_BASE_URL", "https://api.notion.com/v1"),
		NotionVersion: getEnv("NOTION_VERSION", "2022-06-28"),

		CharactersDBID: getEnv("NOTION_CHARACTERS_DB", ""),
		ElementsDBID:   getEnv("NOTION_ELEMENTS_DB", ""),
		PuzzlesDBID:    getEnv("NOTION_PUZZLES_DB", ""),
		TimelineDBID:   getEnv("NOTION_TIMELINE_DB", ""),

		RateLimitReservoir: getEnvInt("RATE_LIMIT_RESERVOIR", 3),
		RateLimitInterval:  getEnvDuration("RATE_LIMIT_INTERVAL", time.Second),
		UpstreamTimeout:    getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		MaxRetries:         getEnvInt("UPSTREAM_MAX_RETRIES", 3),

		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheCleanupPeriod: getEnvDuration("CACHE_CLEANUP_PERIOD", time.Minute),
		CacheMaxEntries:    getEnvInt("CACHE_MAX_ENTRIES", 1000),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 25*time.Second),

		EnableCaching:   getEnvBool("ENABLE_CACHING", true),
		EnableRateLimit: getEnvBool("ENABLE_RATE_LIMIT", true),
		EnableMetrics:   getEnvBool("ENABLE_METRICS", true),
		EnableTracing:   getEnvBool("ENABLE_TRACING", false),
		EnableCSRF:      getEnvBool("ENABLE_CSRF", false),

		TracingEndpoint: getEnv("TRACING_ENDPOINT", ""),
	}
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	if overlay := os.Getenv("CONFIG_FILE"); overlay != "" {
		if err := applyOverlay(cfg, overlay); err != nil {
			return nil, err
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, overlay)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required settings are present and well-formed.
// Missing workspace credentials are fatal everywhere except tests, where
// fakes replace the upstream.
func (c *Config) Validate() error {
	if c.Environment != Development && c.Environment != Test && c.Environment != Production {
		return errors.NewConfigError("ENVIRONMENT", "must be development, test or production")
	}

	if c.Environment != Test {
		if c.NotionAPIKey == "" {
			return errors.NewConfigError("NOTION_API_KEY", "workspace token is required")
		}
		for _, db := range []struct{ name, id string }{
			{"NOTION_CHARACTERS_DB", c.CharactersDBID},
			{"NOTION_ELEMENTS_DB", c.ElementsDBID},
			{"NOTION_PUZZLES_DB", c.PuzzlesDBID},
			{"NOTION_TIMELINE_DB", c.TimelineDBID},
		} {
			if db.id == "" {
				return errors.NewConfigError(db.name, "database identifier is required")
			}
			if _, err := uuid.Parse(db.id); err != nil {
				return errors.NewConfigError(db.name, "malformed database identifier")
			}
		}
	}

	if c.RateLimitReservoir < 1 {
		return errors.NewConfigError("RATE_LIMIT_RESERVOIR", "must be at least 1")
	}
	if c.RateLimitInterval <= 0 {
		return errors.NewConfigError("RATE_LIMIT_INTERVAL", "must be positive")
	}
	if c.CacheMaxEntries < 1 {
		return errors.NewConfigError("CACHE_MAX_ENTRIES", "must be at least 1")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.NewConfigError("PORT", "must be a valid TCP port")
	}

	return nil
}

// DatabaseIDs returns the configured database identifiers in the canonical
// kind order: characters, elements, puzzles, timeline.
func (c *Config) DatabaseIDs() []string {
	return []string{c.CharactersDBID, c.ElementsDBID, c.PuzzlesDBID, c.TimelineDBID}
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable. Plain integers are
// read as seconds so `CACHE_TTL=300` and `CACHE_TTL=5m` mean the same thing.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
