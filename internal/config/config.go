// Package config provides gateway configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds ai-services gateway configuration.
type Config struct {
	// HTTP listener (GATEWAY_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr string `envconfig:"GATEWAY_HTTP_ADDR"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`

	// Timeouts
	HandlerTimeout     time.Duration `envconfig:"HANDLER_TIMEOUT" default:"25s"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Database. Empty disables Postgres: callers verify against API_KEYS and
	// payment intents live in memory.
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// COMMS: connect to standalone NATS at COMMS_URL. Empty disables event
	// publishing.
	COMMSURL  string `envconfig:"COMMS_URL"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"ai-services"`

	// Static API keys (key:username pairs) used when no database is configured.
	APIKeys map[string]string `envconfig:"API_KEYS"`

	// Settlement providers
	StripeSecretKey     string        `envconfig:"STRIPE_SECRET_KEY"`
	StripePublicKey     string        `envconfig:"STRIPE_PUBLIC_KEY"`
	StripeWebhookSecret string        `envconfig:"STRIPE_WEBHOOK_SECRET"`
	MetaAppID           string        `envconfig:"META_APP_ID"`
	IntentRetention     time.Duration `envconfig:"INTENT_RETENTION" default:"24h"`

	// Capability providers
	WeatherAPIKey string `envconfig:"WEATHER_API_KEY"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the gateway server.
func (c *Config) ValidateForServe() error {
	if c.HandlerTimeout <= 0 {
		return fmt.Errorf("%s - HANDLER_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.IntentRetention <= 0 {
		return fmt.Errorf("%s - INTENT_RETENTION must be positive", logPrefix)
	}
	if c.DatabaseURL == "" && len(c.APIKeys) == 0 {
		return fmt.Errorf("%s - either DATABASE_URL or API_KEYS is required for serve", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, seed).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
