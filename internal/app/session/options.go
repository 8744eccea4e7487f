package session

import (
	"time"

	"github.com/okian/pscore/pkg/logger"
)

const (
	// DefaultTickInterval is the countdown step.
	DefaultTickInterval = time.Second
	// DefaultEstimatedSeconds is where the countdown starts.
	DefaultEstimatedSeconds = 20
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock used to stamp history entries.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTickInterval sets how often the countdown decrements.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// WithEstimatedSeconds sets the countdown start value.
func WithEstimatedSeconds(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.estimatedSeconds = n
		}
	}
}
