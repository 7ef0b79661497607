package entitlement

import (
	"log/slog"
	"time"
)

// Option configures a Checker.
type Option func(*Checker)

// WithAutoProvision makes the checker create the default FREE subscription for
// users that have none instead of failing with ErrNoSubscription.
func WithAutoProvision(enabled bool) Option {
	return func(c *Checker) {
		c.autoProvision = enabled
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Checker) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers a decision observer.
func WithObserver(o Observer) Option {
	return func(c *Checker) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock overrides the time source used to pick the billing period.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		if now != nil {
			c.now = now
		}
	}
}
