package engine

import (
	"log/slog"
)

// Option configures a Bridge, Applier or Router.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
	journal Journal
	policy  PhasePolicy
	clock   *Clock

	maxDeferred int
}

func newConfig(opts []Option) options {
	o := options{
		logger: slog.Default(),
		policy: PermissiveForward,

		maxDeferred: DefaultMaxDeferred,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithJournal records every patch and event.
func WithJournal(j Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

// WithPhasePolicy sets how phase-order violations are handled.
//
// Default: PermissiveForward.
func WithPhasePolicy(p PhasePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithClock sets the logical clock, e.g. NewClockAt(lastSeq) to resume on
// an existing journal.
func WithClock(c *Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithMaxDeferred bounds the deferred work drained after one top-level
// Dispatch. Values below 1 are ignored. Default: DefaultMaxDeferred.
func WithMaxDeferred(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDeferred = n
		}
	}
}
