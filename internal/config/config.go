package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field maps 1:1 to an env var of the same name.
type Config struct {
	// Server
	Port               int    `mapstructure:"PORT"`
	Env                string `mapstructure:"APP_ENV"` // development | production | test
	WorkerPoolSize     int    `mapstructure:"WORKER_POOL_SIZE"`
	CORSOrigins        string `mapstructure:"CORS_ORIGINS"` // comma separated, "*" allows any
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	StaticDir          string `mapstructure:"STATIC_DIR"` // built SPA; empty disables static serving

	// Store
	DBDriver    string `mapstructure:"DB_DRIVER"` // sqlite | postgres
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis (optional: empty disables the job queue)
	RedisURL string `mapstructure:"REDIS_URL"`

	// Seeding
	SeedOnStartup   bool          `mapstructure:"SEED_ON_STARTUP"`
	SeedProductsURL string        `mapstructure:"SEED_PRODUCTS_URL"`
	SeedSalesURL    string        `mapstructure:"SEED_SALES_URL"`
	SeedMaxAttempts int           `mapstructure:"SEED_MAX_ATTEMPTS"`
	SeedFallbackDir string        `mapstructure:"SEED_FALLBACK_DIR"`
	SeedSchedule    string        `mapstructure:"SEED_SCHEDULE"` // cron spec; empty disables
	SeedTimeout     time.Duration `mapstructure:"SEED_TIMEOUT"`

	// Seed-failure alerts (empty SMTP_HOST or ALERT_EMAIL disables them)
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	AlertEmail   string `mapstructure:"ALERT_EMAIL"`
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether local fallbacks and debug surfaces are enabled.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// AlertsEnabled reports whether seed failures are mailed to AlertEmail.
func (c *Config) AlertsEnabled() bool { return c.SMTPHost != "" && c.AlertEmail != "" }

// AllowedOrigins splits CORSOrigins into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// Optional .env file for local development; a missing file is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("WORKER_POOL_SIZE", 2)
	v.SetDefault("CORS_ORIGINS", "https://localhost:5173")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 1000)
	v.SetDefault("STATIC_DIR", "")

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "file:catalog?mode=memory&cache=shared")

	v.SetDefault("REDIS_URL", "")

	v.SetDefault("SEED_ON_STARTUP", true)
	v.SetDefault("SEED_PRODUCTS_URL", "https://singularsystems-tech-assessment-sales-api2.azurewebsites.net/products")
	v.SetDefault("SEED_SALES_URL", "https://singularsystems-tech-assessment-sales-api2.azurewebsites.net/product-sales")
	v.SetDefault("SEED_MAX_ATTEMPTS", 3)
	v.SetDefault("SEED_FALLBACK_DIR", "SeedData")
	v.SetDefault("SEED_SCHEDULE", "")
	v.SetDefault("SEED_TIMEOUT", 2*time.Minute)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("ALERT_EMAIL", "")
}
