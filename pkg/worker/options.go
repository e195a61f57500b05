// Package worker provides the Worker polling loop for the jobs package.
package worker

import (
	"time"

	"github.com/jdziat/rowlock-jobs/pkg/security"
)

// DefaultPollInterval is how long an idle worker waits between polls.
const DefaultPollInterval = time.Second

// WorkerOption configures a Worker.
type WorkerOption interface {
	ApplyWorker(*WorkerConfig)
}

type workerOptionFunc func(*WorkerConfig)

func (f workerOptionFunc) ApplyWorker(c *WorkerConfig) { f(c) }

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	PollInterval time.Duration
	WorkerID     string
	ConnectRetry *RetryConfig
}

// PollInterval sets the idle wait between empty polls.
// Values are clamped to at least security.MinPollInterval.
func PollInterval(d time.Duration) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.PollInterval = security.ClampPollInterval(d)
	})
}

// WorkerID sets the id reported in events and logs.
func WorkerID(id string) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		if id != "" {
			c.WorkerID = id
		}
	})
}

// ConnectRetry sets the retry policy for acquiring the loop's connection.
func ConnectRetry(cfg RetryConfig) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		if cfg.MaxAttempts < 1 {
			cfg.MaxAttempts = 1
		}
		c.ConnectRetry = &cfg
	})
}

// DisableRetry makes a single connection attempt.
func DisableRetry() WorkerOption {
	return ConnectRetry(RetryConfig{MaxAttempts: 1})
}
