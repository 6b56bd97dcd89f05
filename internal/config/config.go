// Package config loads and validates environment configuration at startup.
// Missing or invalid required values are fatal before the worker loop runs;
// nothing here can fail mid-loop.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration for the pipeline.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" validate:"required"`

	// GeminiAPIKey is only required by the worker command; the management
	// commands (migrate, companies, stats) run without one.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// Worker loop tuning.
	BatchSize       int           `envconfig:"BATCH_SIZE" default:"20" validate:"min=1,max=100"`
	ClassifyTimeout time.Duration `envconfig:"CLASSIFY_TIMEOUT" default:"30s" validate:"min=1s"`
	MaxRetries      int           `envconfig:"MAX_RETRIES" default:"3" validate:"min=0,max=10"`
	RetryBaseDelay  time.Duration `envconfig:"RETRY_BASE_DELAY" default:"2s" validate:"min=100ms"`
	CallDelay       time.Duration `envconfig:"CALL_DELAY" default:"1s"`
	IdleBackoffMin  time.Duration `envconfig:"IDLE_BACKOFF_MIN" default:"5s" validate:"min=1s"`
	IdleBackoffMax  time.Duration `envconfig:"IDLE_BACKOFF_MAX" default:"30s" validate:"min=1s"`

	// Skip-cache policy. FreshnessWindow is deliberately tunable; how often a
	// company's sales stack actually changes is an open operational question.
	FreshnessWindow time.Duration `envconfig:"FRESHNESS_WINDOW" default:"2160h"`
	RefreshSpec     string        `envconfig:"CACHE_REFRESH_SPEC" default:"@every 15m"`

	// Optional observability surface. Empty disables the metrics listener.
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.IdleBackoffMax < c.IdleBackoffMin {
		return fmt.Errorf("config error: IDLE_BACKOFF_MAX (%s) must be >= IDLE_BACKOFF_MIN (%s)",
			c.IdleBackoffMax, c.IdleBackoffMin)
	}
	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("config error: FRESHNESS_WINDOW must be positive")
	}
	return nil
}
