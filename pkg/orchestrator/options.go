package orchestrator

import (
	"log/slog"
	"time"

	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/observability"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithHooks registers lifecycle hooks. Later calls add to earlier ones.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = observability.Merge(o.hooks, hooks)
	}
}

// WithMetrics records lifecycle events and the suspended call count in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
		o.hooks = observability.Merge(o.hooks, m.Hooks())
	}
}

// WithClock sets the time source of lifecycle event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}
