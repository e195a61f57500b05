package config

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/rowlock-jobs/pkg/storage"
	"github.com/jdziat/rowlock-jobs/pkg/worker"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/jobs", cfg.DatabaseURL)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 10, cfg.DBMaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Empty(t, cfg.WorkerID)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DATABASE_URL":      "sqlite://jobs.db",
		"DB_MAX_OPEN_CONNS": "4",
		"DB_MAX_IDLE_CONNS": "2",
		"POLL_INTERVAL":     "250ms",
		"WORKER_ID":         "worker-a",
		"METRICS_ADDR":      ":9090",
	})
	require.NoError(t, err)

	assert.Equal(t, "sqlite://jobs.db", cfg.DatabaseURL)
	assert.Equal(t, 4, cfg.DBMaxOpenConns)
	assert.Equal(t, 2, cfg.DBMaxIdleConns)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "worker-a", cfg.WorkerID)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadFrom_InvalidDuration(t *testing.T) {
	_, err := LoadFrom(map[string]string{
		"DATABASE_URL":  "sqlite://jobs.db",
		"POLL_INTERVAL": "soon",
	})
	assert.Error(t, err)
}

func TestPoolOptions(t *testing.T) {
	cfg := &Config{DBMaxOpenConns: 7, DBMaxIdleConns: 3, DBConnMaxLifetime: time.Minute}

	s, err := storage.Open("sqlite://"+filepath.Join(t.TempDir(), "pool.db"), cfg.PoolOptions()...)
	require.NoError(t, err)

	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)
}

func TestWorkerOptions(t *testing.T) {
	cfg := &Config{PollInterval: 0, WorkerID: "w-9"}

	var wc worker.WorkerConfig
	for _, opt := range cfg.WorkerOptions() {
		opt.ApplyWorker(&wc)
	}

	assert.Equal(t, time.Millisecond, wc.PollInterval, "clamped")
	assert.Equal(t, "w-9", wc.WorkerID)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := (&Config{LogLevel: "warn", LogFormat: "json"}).NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "job_id", "j1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"job_id":"j1"`)

	buf.Reset()
	logger = (&Config{LogLevel: "debug", LogFormat: "text"}).NewLogger(&buf)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("text line")
	assert.Contains(t, buf.String(), "msg=\"text line\"")
}
