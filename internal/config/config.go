// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/cron.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Store drivers and directory backends
// --------------------------------------------------------------------------

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DirectoryDB       = "db"
	DirectorySupabase = "supabase"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Store
	StoreDriver    string // postgres, sqlite
	DatabaseURL    string
	SQLitePath     string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// User directory
	DirectoryBackend       string // db, supabase
	SupabaseURL            string
	SupabaseServiceRoleKey string

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// Logging
	LogLevel  string
	LogFormat string // text, json

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Shared secret for scheduler triggers and admin writes
	CronSecret string

	// Aladhan time-table provider
	AladhanBaseURL           string
	AladhanMethod            int
	AladhanRequestsPerMinute int

	// OneSignal push delivery
	OneSignalAppID   string
	OneSignalAPIKey  string
	OneSignalBaseURL string

	// Prayer engine
	PrayerLead    time.Duration
	PrayerWindow  time.Duration
	PrayerWorkers int

	// In-process scheduler
	SchedulerEnabled bool
	PrayerCron       string
	AgendaCron       string
	LedgerRetention  time.Duration
	PurgeInterval    time.Duration

	// Run lock (optional)
	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RunLockTTL    time.Duration

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StoreDriver:    strings.ToLower(envOr("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:    envOr("DATABASE_URL", envOr("SUPABASE_DB_URL", "")),
		SQLitePath:     envOr("SQLITE_PATH", "./ramadhan.db"),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 8),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		DirectoryBackend:       strings.ToLower(envOr("DIRECTORY_BACKEND", DirectoryDB)),
		SupabaseURL:            envOr("SUPABASE_URL", envOr("NEXT_PUBLIC_SUPABASE_URL", "")),
		SupabaseServiceRoleKey: envOr("SUPABASE_SERVICE_ROLE_KEY", ""),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8080)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CronSecret: envOr("CRON_SECRET", ""),

		AladhanBaseURL:           envOr("ALADHAN_BASE_URL", "https://api.aladhan.com"),
		AladhanMethod:            envInt("ALADHAN_METHOD", 11),
		AladhanRequestsPerMinute: envInt("ALADHAN_REQUESTS_PER_MINUTE", 120),

		OneSignalAppID:   envOr("ONESIGNAL_APP_ID", envOr("NEXT_PUBLIC_ONESIGNAL_APP_ID", "")),
		OneSignalAPIKey:  envOr("ONESIGNAL_REST_API_KEY", ""),
		OneSignalBaseURL: envOr("ONESIGNAL_BASE_URL", "https://onesignal.com"),

		PrayerLead:    time.Duration(envInt("PRAYER_LEAD_MINUTES", 10)) * time.Minute,
		PrayerWindow:  time.Duration(envInt("PRAYER_WINDOW_MINUTES", 5)) * time.Minute,
		PrayerWorkers: envInt("PRAYER_WORKERS", 4),

		SchedulerEnabled: envBool("SCHEDULER_ENABLED", false),
		PrayerCron:       envOr("PRAYER_CRON", "* * * * *"),
		AgendaCron:       envOr("AGENDA_CRON", "* * * * *"),
		LedgerRetention:  time.Duration(envInt("LEDGER_RETENTION_DAYS", 30)) * 24 * time.Hour,
		PurgeInterval:    envDuration("LEDGER_PURGE_INTERVAL", 6*time.Hour),

		RedisAddr:     envOr("REDIS_ADDR", ""),
		RedisUsername: envOr("REDIS_USERNAME", ""),
		RedisPassword: envOr("REDIS_PASSWORD", ""),
		RunLockTTL:    envDuration("RUN_LOCK_TTL", 55*time.Second),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL or SUPABASE_DB_URL must be set for the postgres driver")
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want postgres or sqlite)", cfg.StoreDriver)
	}

	switch cfg.DirectoryBackend {
	case DirectoryDB:
	case DirectorySupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceRoleKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase directory")
		}
	default:
		return nil, fmt.Errorf("unknown DIRECTORY_BACKEND %q (want db or supabase)", cfg.DirectoryBackend)
	}

	if cfg.PrayerWindow < 0 || cfg.PrayerLead < 0 {
		return nil, fmt.Errorf("PRAYER_LEAD_MINUTES and PRAYER_WINDOW_MINUTES must not be negative")
	}

	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OneSignalConfigured reports whether push delivery credentials are present.
func (c *Config) OneSignalConfigured() bool {
	return c.OneSignalAppID != "" && c.OneSignalAPIKey != ""
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
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
