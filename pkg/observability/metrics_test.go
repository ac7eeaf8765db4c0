package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTransition(ctx, &domain.TransitionEvent{From: domain.PhaseInitialized, To: domain.PhaseAwaitingServiceInitReply})
	hooks.OnStale(ctx, &domain.StaleEvent{Source: "reply"})
	hooks.OnStale(ctx, &domain.StaleEvent{Source: "reply"})
	hooks.OnConclude(ctx, &domain.ConcludeEvent{Outcome: domain.Defeat, TimedOut: true})
	m.SetSuspended(3)

	expected := `
# HELP gamesession_stale_events_total Service replies and watchdog ticks dropped as stale.
# TYPE gamesession_stale_events_total counter
gamesession_stale_events_total{source="reply"} 2
# HELP gamesession_suspended_calls Calls waiting on a scoring service reply.
# TYPE gamesession_suspended_calls gauge
gamesession_suspended_calls 3
# HELP gamesession_watchdog_defeats_total Games forced to defeat by the watchdog.
# TYPE gamesession_watchdog_defeats_total counter
gamesession_watchdog_defeats_total 1
`
	err := testutil.GatherAndCompare(reg, bytes.NewBufferString(expected),
		"gamesession_stale_events_total",
		"gamesession_suspended_calls",
		"gamesession_watchdog_defeats_total",
	)
	assert.NoError(t, err)
	count, err := testutil.GatherAndCount(reg, "gamesession_transitions_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMerge_CallsInOrder(t *testing.T) {
	var order []string
	first := domain.LifecycleHooks{
		OnConclude: func(context.Context, *domain.ConcludeEvent) { order = append(order, "first") },
	}
	second := domain.LifecycleHooks{
		OnConclude: func(context.Context, *domain.ConcludeEvent) { order = append(order, "second") },
		OnStale:    func(context.Context, *domain.StaleEvent) { order = append(order, "stale") },
	}

	merged := observability.Merge(first, domain.LifecycleHooks{}, second)
	merged.OnConclude(context.Background(), &domain.ConcludeEvent{})
	merged.OnStale(context.Background(), &domain.StaleEvent{})

	assert.Equal(t, []string{"first", "second", "stale"}, order)
	assert.Nil(t, merged.OnTransition)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LoggingHooks(logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatText))

	hooks.OnStale(context.Background(), &domain.StaleEvent{Source: "timeout"})
	assert.Empty(t, buf.String(), "stale events log at debug")

	hooks.OnConclude(context.Background(), &domain.ConcludeEvent{EventBase: domain.EventBase{Player: "alice"}, Outcome: domain.Victory, Attempts: 2})
	assert.Contains(t, buf.String(), "player=alice")
	assert.Contains(t, buf.String(), "outcome=victory")
}
