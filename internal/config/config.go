// Package config loads smsd configuration from environment variables using
// caarlos0/env/v11. A .env file in the working directory, if present, is
// read first with godotenv; variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	smsv2 "github.com/Santosh-B-Vitana/smsv2-sub000"
)

// Config holds all smsd settings.
type Config struct {
	// ── Jobs ─────────────────────────────────────────────────────────────────────
	Concurrency       int           `env:"SMS_CONCURRENCY"        envDefault:"1"`
	PollInterval      time.Duration `env:"SMS_POLL_INTERVAL"      envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SMS_SHUTDOWN_TIMEOUT"   envDefault:"30s"`
	JobRetention      time.Duration `env:"SMS_JOB_RETENTION"      envDefault:"1h"`
	RetentionInterval time.Duration `env:"SMS_RETENTION_INTERVAL" envDefault:"10m"`

	// ── Rate limiting ────────────────────────────────────────────────────────────
	RateLimitMax           int           `env:"SMS_RATE_LIMIT_MAX"            envDefault:"100"`
	RateLimitWindow        time.Duration `env:"SMS_RATE_LIMIT_WINDOW"         envDefault:"1m"`
	RateLimitSweepInterval time.Duration `env:"SMS_RATE_LIMIT_SWEEP_INTERVAL" envDefault:"1m"`

	// ── Cache ────────────────────────────────────────────────────────────────────
	CacheTTL time.Duration `env:"SMS_CACHE_TTL" envDefault:"5m"`

	// ── Telemetry ────────────────────────────────────────────────────────────────
	// TraceExporter is "stdout" or "none".
	TraceExporter string `env:"SMS_TRACE_EXPORTER" envDefault:"none"`
	ServiceName   string `env:"SMS_SERVICE_NAME"   envDefault:"smsd"`

	// ── Logging ──────────────────────────────────────────────────────────────────
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and parses Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("SMS_CONCURRENCY must be >= 1, got %d", c.Concurrency))
	}
	if c.RateLimitMax < 1 {
		errs = append(errs, fmt.Errorf("SMS_RATE_LIMIT_MAX must be >= 1, got %d", c.RateLimitMax))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("SMS_RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("SMS_CACHE_TTL must be positive, got %s", c.CacheTTL))
	}
	switch c.TraceExporter {
	case "stdout", "none":
	default:
		errs = append(errs, fmt.Errorf("SMS_TRACE_EXPORTER must be stdout or none, got %q", c.TraceExporter))
	}
	return errors.Join(errs...)
}

// Engine converts the settings into the library configuration.
func (c *Config) Engine() smsv2.Config {
	return smsv2.Config{
		Concurrency:            c.Concurrency,
		PollInterval:           c.PollInterval,
		ShutdownTimeout:        c.ShutdownTimeout,
		RateLimitMax:           c.RateLimitMax,
		RateLimitWindow:        c.RateLimitWindow,
		RateLimitSweepInterval: c.RateLimitSweepInterval,
		CacheTTL:               c.CacheTTL,
		JobRetention:           c.JobRetention,
		RetentionInterval:      c.RetentionInterval,
	}
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelInfo
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
