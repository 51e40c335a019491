package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port        string
	Debug       bool
	LogFormat   string // "text" or "json"
	CORSOrigins []string

	// Sources
	SourcesFile string // empty uses the embedded registry

	// Scan configuration
	ScanTimeout      time.Duration
	FetchMaxAttempts int
	FetchBackoff     time.Duration
	ScanSchedule     string // cron spec with optional seconds field, empty disables rescans
	ValidateContacts bool

	// Detail cache
	DetailCacheSize int
	DetailCacheTTL  time.Duration
	RedisURL        string // when set, details are cached in Redis instead of memory
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Debug:       getBoolEnv("DEBUG", false),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		CORSOrigins: getSliceEnv("CORS_ORIGINS", []string{"http://localhost:5173"}),

		SourcesFile: getEnv("SOURCES_FILE", ""),

		ScanTimeout:      time.Duration(getIntEnv("SCAN_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchMaxAttempts: getIntEnv("FETCH_MAX_ATTEMPTS", 3),
		FetchBackoff:     time.Duration(getIntEnv("FETCH_BACKOFF_MS", 1000)) * time.Millisecond,
		ScanSchedule:     getEnv("SCAN_SCHEDULE", ""),
		ValidateContacts: getBoolEnv("VALIDATE_CONTACTS", true),

		DetailCacheSize: getIntEnv("DETAIL_CACHE_SIZE", 256),
		DetailCacheTTL:  time.Duration(getFloatEnv("DETAIL_CACHE_TTL_MINUTES", 60) * float64(time.Minute)),
		RedisURL:        getEnv("REDIS_URL", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ScheduleParser accepts standard cron specs with an optional leading
// seconds field, and descriptors such as @hourly.
var ScheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule validates a SCAN_SCHEDULE value.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return ScheduleParser.Parse(spec)
}

func (c *Config) validate() error {
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}

	if c.ScanTimeout <= 0 {
		return fmt.Errorf("SCAN_TIMEOUT_SECONDS must be positive")
	}

	if c.FetchMaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1")
	}

	if c.FetchBackoff < 0 {
		return fmt.Errorf("FETCH_BACKOFF_MS must not be negative")
	}

	if c.DetailCacheSize < 1 {
		return fmt.Errorf("DETAIL_CACHE_SIZE must be at least 1")
	}

	if c.ScanSchedule != "" {
		if _, err := ParseSchedule(c.ScanSchedule); err != nil {
			return fmt.Errorf("SCAN_SCHEDULE %q is invalid: %w", c.ScanSchedule, err)
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return defaultValue
}
