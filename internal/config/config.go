// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api and cmd/footiq.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Data modes.
const (
	DataModeLive   = "live"
	DataModeReplay = "replay"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Baseline sources.
const (
	BaselineSourceFile     = "file"
	BaselineSourcePostgres = "postgres"
)

// --------------------------------------------------------------------------
// Config holds settings populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Database (optional; only needed for BASELINE_SOURCE=postgres)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Upstream
	SportAPIKey       string
	SportAPIHost      string
	SportAPIBaseURL   string
	SportAPIRPM       int
	SportAPITimeout   time.Duration
	DataMode          string
	AllowLiveFetch    bool
	FixtureDir        string
	DefaultGameWindow int

	// Cache
	CacheEnabled bool
	CacheBackend string
	RedisURL     string
	CacheTTL     time.Duration

	// Baselines
	BaselinesPath  string
	BaselineSource string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		SportAPIKey:       envOr("SPORTAPI_KEY", envOr("RAPIDAPI_KEY", "")),
		SportAPIHost:      envOr("SPORTAPI_HOST", "sportapi7.p.rapidapi.com"),
		SportAPIBaseURL:   envOr("SPORTAPI_BASE_URL", ""),
		SportAPIRPM:       envInt("SPORTAPI_REQUESTS_PER_MINUTE", 60),
		SportAPITimeout:   time.Duration(envInt("SPORTAPI_TIMEOUT_S", 10)) * time.Second,
		DataMode:          strings.ToLower(envOr("DATA_MODE", DataModeLive)),
		AllowLiveFetch:    envBool("ALLOW_LIVE_FETCH", true),
		FixtureDir:        envOr("FIXTURE_DIR", "fixtures/sportapi"),
		DefaultGameWindow: envInt("DEFAULT_GAME_WINDOW", 5),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheBackend: strings.ToLower(envOr("CACHE_BACKEND", CacheBackendMemory)),
		RedisURL:     envOr("REDIS_URL", "redis://localhost:6379/0"),
		CacheTTL:     time.Duration(envInt("CACHE_TTL_S", 1800)) * time.Second,

		BaselinesPath:  envOr("BASELINES_PATH", "config/baselines.json"),
		BaselineSource: strings.ToLower(envOr("BASELINE_SOURCE", BaselineSourceFile)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings and cross-field requirements.
func (c *Config) Validate() error {
	switch c.DataMode {
	case DataModeLive, DataModeReplay:
	default:
		return fmt.Errorf("DATA_MODE must be %q or %q, got %q", DataModeLive, DataModeReplay, c.DataMode)
	}

	switch c.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheBackendMemory, CacheBackendRedis, c.CacheBackend)
	}

	switch c.BaselineSource {
	case BaselineSourceFile:
	case BaselineSourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when BASELINE_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("BASELINE_SOURCE must be %q or %q, got %q", BaselineSourceFile, BaselineSourcePostgres, c.BaselineSource)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_S must be positive")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
