package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setStoreEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://real:5432/hunter")
	t.Setenv("JWT_SECRET", "real-secret")
}

func clearStoreEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "SUPABASE_DB_URL",
		"JWT_SECRET", "SUPABASE_JWT_SECRET",
		"SCRAPE_WEBHOOK_URL", "N8N_WEBHOOK_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigured(t *testing.T) {
	clearStoreEnv(t)
	setStoreEnv(t)

	cfg := Load()

	assert.False(t, cfg.Degraded())
	assert.Equal(t, "postgres://real:5432/hunter", cfg.DatabaseURL)
	assert.Equal(t, "real-secret", cfg.JWTSecret)
}

func TestLoadLegacyFallbacks(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("SUPABASE_DB_URL", "postgres://legacy:5432/hunter")
	t.Setenv("SUPABASE_JWT_SECRET", "legacy-secret")
	t.Setenv("N8N_WEBHOOK_URL", "https://legacy.example/webhook")

	cfg := Load()

	assert.False(t, cfg.Degraded())
	assert.Equal(t, "postgres://legacy:5432/hunter", cfg.DatabaseURL)
	assert.Equal(t, "legacy-secret", cfg.JWTSecret)
	assert.Equal(t, "https://legacy.example/webhook", cfg.WebhookURL)
}

func TestLoadPrefersCurrentOverLegacy(t *testing.T) {
	clearStoreEnv(t)
	setStoreEnv(t)
	t.Setenv("SUPABASE_DB_URL", "postgres://legacy:5432/hunter")
	t.Setenv("SCRAPE_WEBHOOK_URL", "https://current.example/webhook")
	t.Setenv("N8N_WEBHOOK_URL", "https://legacy.example/webhook")

	cfg := Load()

	assert.Equal(t, "postgres://real:5432/hunter", cfg.DatabaseURL)
	assert.Equal(t, "https://current.example/webhook", cfg.WebhookURL)
}

func TestLoadDegradedSubstitutesPlaceholders(t *testing.T) {
	clearStoreEnv(t)

	cfg := Load()

	assert.True(t, cfg.Degraded())
	assert.Equal(t, PlaceholderDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, PlaceholderJWTSecret, cfg.JWTSecret)
}

func TestLoadPartialCredentialsStillDegraded(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv("DATABASE_URL", "postgres://real:5432/hunter")

	cfg := Load()

	assert.True(t, cfg.Degraded())
	assert.Equal(t, "postgres://real:5432/hunter", cfg.DatabaseURL)
	assert.Equal(t, PlaceholderJWTSecret, cfg.JWTSecret)
}

func TestLoadDefaultWebhook(t *testing.T) {
	clearStoreEnv(t)
	setStoreEnv(t)

	cfg := Load()

	assert.Equal(t, DefaultWebhookURL, cfg.WebhookURL)
}

func TestLoadDefaults(t *testing.T) {
	clearStoreEnv(t)
	setStoreEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("EMAIL_FROM_NAME", "")

	cfg := Load()

	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, "Hunter", cfg.EmailFromName)
}
