package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Engine selection values for Config.Engine.
const (
	EngineVeo       = "veo"
	EngineSimulated = "sim"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	AdminEmail       string
	StoragePath      string
	GeoIPDBPath      string
	Engine           string
	VeoAPIKey        string
	VeoModel         string
	VeoBaseURL       string
	PollInterval     time.Duration
	SubmitTimeout    time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// DemoMode reports whether the service runs without PostgreSQL, keeping all
// state in memory.
func (c *Config) DemoMode() bool {
	return c.DatabaseURL == ""
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: without it the service
// falls back to the in-memory stores.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@dancestar.app"),
		StoragePath:      getEnv("STORAGE_PATH", "./data/uploads"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		Engine:           strings.ToLower(getEnv("ENGINE", EngineSimulated)),
		VeoAPIKey:        os.Getenv("VEO_API_KEY"),
		VeoModel:         getEnv("VEO_MODEL", "veo-3.1-fast-generate-preview"),
		VeoBaseURL:       getEnv("VEO_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 3)),
		SubmitTimeout:    time.Second * time.Duration(getEnvInt("ENGINE_SUBMIT_TIMEOUT_SECONDS", 30)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.Engine {
	case EngineVeo:
		if cfg.VeoAPIKey == "" {
			return nil, fmt.Errorf("VEO_API_KEY is required when ENGINE=veo")
		}
	case EngineSimulated:
	default:
		return nil, fmt.Errorf("unknown ENGINE %q", cfg.Engine)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
