package worker

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls how a Worker retries acquiring its connection before
// giving up with a *core.ConnectionError.
type RetryConfig struct {
	// MaxAttempts counts the first attempt. Default: 3
	MaxAttempts int

	// InitialBackoff is the wait after the first failure. Default: 500ms
	InitialBackoff time.Duration

	// MaxBackoff caps every wait. Default: 10s
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after each failure; values below 1
	// keep it constant. Default: 2.0
	BackoffMultiplier float64

	// JitterFraction randomizes each wait by up to ± this fraction.
	// Default: 0.2
	JitterFraction float64
}

// DefaultRetryConfig returns the default connection retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.2,
	}
}

// Delay returns the wait after the given number of consecutive failures,
// before jitter.
func (c RetryConfig) Delay(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	mult := c.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(c.InitialBackoff) * math.Pow(mult, float64(failures-1))
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		return c.MaxBackoff
	}
	return time.Duration(d)
}

func (c RetryConfig) jitter(d time.Duration) time.Duration {
	if c.JitterFraction <= 0 {
		return d
	}
	j := d + time.Duration(float64(d)*c.JitterFraction*(rand.Float64()*2-1))
	if j < 0 {
		return d
	}
	return j
}

// retryWithBackoff calls operation until it succeeds, fails permanently, runs
// out of attempts, or ctx ends. attempt starts at 1. The last operation error
// is returned, or ctx.Err() if ctx ended during a wait.
func retryWithBackoff(ctx context.Context, config RetryConfig, operation func(attempt int) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(attempt); err == nil {
			return nil
		}
		if !IsRetryableError(err) || attempt >= config.MaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.jitter(config.Delay(attempt))):
		}
	}
}

// IsRetryableError reports whether a failed connection attempt is worth
// repeating. Refused connections, pool exhaustion and lock timeouts are
// usually transient; cancellation is not.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
