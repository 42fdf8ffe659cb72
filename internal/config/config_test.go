package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Empty(t, cfg.RedisURL)
	assert.True(t, cfg.SeedOnStartup)
	assert.Equal(t, 3, cfg.SeedMaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.SeedTimeout)
	assert.Equal(t, []string{"https://localhost:5173"}, cfg.AllowedOrigins())
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.AlertsEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/catalog")
	t.Setenv("SEED_ON_STARTUP", "false")
	t.Setenv("SEED_TIMEOUT", "45s")
	t.Setenv("SEED_SCHEDULE", "@every 6h")
	t.Setenv("CORS_ORIGINS", " https://a.test , ,https://b.test")
	t.Setenv("SMTP_HOST", "smtp.test")
	t.Setenv("ALERT_EMAIL", "ops@example.test")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@db:5432/catalog", cfg.DatabaseURL)
	assert.False(t, cfg.SeedOnStartup)
	assert.Equal(t, 45*time.Second, cfg.SeedTimeout)
	assert.Equal(t, "@every 6h", cfg.SeedSchedule)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins())
	assert.True(t, cfg.AlertsEnabled())
}

func TestAlertsEnabled_NeedsHostAndRecipient(t *testing.T) {
	assert.False(t, (&Config{SMTPHost: "smtp.test"}).AlertsEnabled())
	assert.False(t, (&Config{AlertEmail: "ops@example.test"}).AlertsEnabled())
}
