// Package config parses controller configuration from environment variables
// using caarlos0/env/v11.
//
// Call [Load] once at startup. Loading fails if DATABASE_URL is missing.
package config

import (
	"io"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jdziat/rowlock-jobs/pkg/storage"
	"github.com/jdziat/rowlock-jobs/pkg/worker"
)

// Config holds all configuration sourced from environment variables.
type Config struct {
	// ── Database ─────────────────────────────────────────────────────────────────
	DatabaseURL       string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"    envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"    envDefault:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`

	// ── Worker ───────────────────────────────────────────────────────────────────
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	// Empty means a generated id.
	WorkerID string `env:"WORKER_ID"`

	// ── Observability ────────────────────────────────────────────────────────────
	// Empty disables the metrics listener.
	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load parses and returns Config from environment variables.
// Returns an error if any required field is missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom parses Config from the given variables instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PoolOptions returns the connection pool settings for storage.Open.
func (c *Config) PoolOptions() []storage.PoolOption {
	return []storage.PoolOption{
		storage.MaxOpenConns(c.DBMaxOpenConns),
		storage.MaxIdleConns(c.DBMaxIdleConns),
		storage.ConnMaxLifetime(c.DBConnMaxLifetime),
	}
}

// WorkerOptions returns the polling loop settings.
func (c *Config) WorkerOptions() []worker.WorkerOption {
	return []worker.WorkerOption{
		worker.PollInterval(c.PollInterval),
		worker.WorkerID(c.WorkerID),
	}
}

// NewLogger creates a slog.Logger based on the configured log level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
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
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
