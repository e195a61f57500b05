package queue

import (
	"log/slog"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

// Config holds the collaborators a Queue reports through.
type Config struct {
	Observer core.Observer
	Clock    core.Clock
	Logger   *slog.Logger
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Observer: core.NopObserver{},
		Clock:    core.SystemClock{},
		Logger:   slog.Default(),
	}
}

// Option modifies Config.
type Option interface {
	Apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) Apply(c *Config) { f(c) }

// WithObserver sets the observer receiving lifecycle events.
// A nil observer discards events.
func WithObserver(o core.Observer) Option {
	return optionFunc(func(c *Config) {
		if o == nil {
			o = core.NopObserver{}
		}
		c.Observer = o
	})
}

// WithClock sets the time source for event timestamps, reschedule
// computations and idle waits. Stores stamp due_at and processed_at with
// their own clock; pass the same clock to storage.WithClock so RetryAt
// deadlines land where they were asked for.
func WithClock(clock core.Clock) Option {
	return optionFunc(func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	})
}
