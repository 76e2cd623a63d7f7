package discovery

import (
	"log/slog"
	"time"
)

type Option func(*Registry)

// WithTTL sets how long an untouched game record survives a sweep.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// WithClock replaces the registry clock, for sweep tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}
