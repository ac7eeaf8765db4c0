package observability

import (
	"context"

	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the orchestrator collectors.
type Metrics struct {
	transitions *prometheus.CounterVec
	stale       *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	timeouts    prometheus.Counter
	suspended   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamesession_transitions_total",
				Help: "Session phase transitions by target phase.",
			},
			[]string{"phase"},
		),
		stale: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamesession_stale_events_total",
				Help: "Service replies and watchdog ticks dropped as stale.",
			},
			[]string{"source"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamesession_games_concluded_total",
				Help: "Concluded games by outcome.",
			},
			[]string{"outcome"},
		),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamesession_watchdog_defeats_total",
			Help: "Games forced to defeat by the watchdog.",
		}),
		suspended: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gamesession_suspended_calls",
			Help: "Calls waiting on a scoring service reply.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.transitions, m.stale, m.outcomes, m.timeouts, m.suspended)
	}
	return m
}

// SetSuspended records the number of parked calls.
func (m *Metrics) SetSuspended(n int) {
	m.suspended.Set(float64(n))
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(string(e.To)).Inc()
		},
		OnStale: func(_ context.Context, e *domain.StaleEvent) {
			m.stale.WithLabelValues(e.Source).Inc()
		},
		OnConclude: func(_ context.Context, e *domain.ConcludeEvent) {
			m.outcomes.WithLabelValues(string(e.Outcome)).Inc()
			if e.TimedOut {
				m.timeouts.Inc()
			}
		},
	}
}
