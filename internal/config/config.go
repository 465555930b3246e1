// Package config loads service configuration from the environment.
//
// The two store credentials (database URL and JWT signing secret) and the
// scrape webhook URL each accept a legacy-named variable as a fallback, a
// leftover from the hosted-store deployment this service replaced. Missing
// required values never crash the process: obviously-fake placeholders are
// substituted and the service runs in a degraded, empty-data mode.
package config

import (
	"os"
	"sync"

	"github.com/intakt/hunter/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	// PlaceholderDatabaseURL is substituted when no database is configured.
	PlaceholderDatabaseURL = "postgres://placeholder.invalid:5432/hunter"
	// PlaceholderJWTSecret is substituted when no signing secret is configured.
	PlaceholderJWTSecret = "placeholder-secret"

	// DefaultWebhookURL is the production n8n maps-lead-gen webhook.
	DefaultWebhookURL = "https://n8n.intakt.co.za/webhook/maps-lead-gen"
)

// Config holds all runtime configuration for the Hunter backend.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	WebhookURL  string

	IngestToken string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	AWSRegion     string
	EmailFrom     string
	EmailFromName string
	AppBaseURL    string

	Port     string
	LogLevel string
	LogFile  string

	degraded bool
}

var warnOnce sync.Once

// Load reads configuration from the environment. Call godotenv.Load first
// if a .env file should be honored.
func Load() *Config {
	cfg := &Config{
		DatabaseURL: envOrLegacy("DATABASE_URL", "SUPABASE_DB_URL"),
		JWTSecret:   envOrLegacy("JWT_SECRET", "SUPABASE_JWT_SECRET"),
		WebhookURL:  envOrLegacy("SCRAPE_WEBHOOK_URL", "N8N_WEBHOOK_URL"),

		IngestToken: os.Getenv("INGEST_TOKEN"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     os.Getenv("REDIS_PORT"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AWSRegion:     envOrDefault("AWS_REGION", "us-east-1"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailFromName: envOrDefault("EMAIL_FROM_NAME", "Hunter"),
		AppBaseURL:    envOrDefault("APP_BASE_URL", "http://localhost:8080"),

		Port:     envOrDefault("PORT", "8787"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile:  os.Getenv("LOG_FILE"),
	}

	if cfg.WebhookURL == "" {
		cfg.WebhookURL = DefaultWebhookURL
	}

	if cfg.DatabaseURL == "" || cfg.JWTSecret == "" {
		cfg.degraded = true
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = PlaceholderDatabaseURL
		}
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = PlaceholderJWTSecret
		}
		warnOnce.Do(func() {
			logger.Warn("store credentials missing, running in degraded empty-data mode",
				zap.String("hint", "set DATABASE_URL and JWT_SECRET"),
			)
		})
	}

	return cfg
}

// Degraded reports whether required store credentials were missing. Reads
// return empty results in this mode; writes fail.
func (c *Config) Degraded() bool {
	return c.degraded
}

func envOrLegacy(key, legacy string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return os.Getenv(legacy)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
