package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/gamesession/pkg/domain"
)

// LoggingHooks logs every lifecycle event. Transitions and conclusions go
// to Info, stale events to Debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "session transition",
				"player", e.Player,
				"from", e.From,
				"to", e.To,
			)
		},
		OnStale: func(ctx context.Context, e *domain.StaleEvent) {
			logger.DebugContext(ctx, "stale event dropped",
				"player", e.Player,
				"source", e.Source,
				"message_id", e.MessageID,
			)
		},
		OnConclude: func(ctx context.Context, e *domain.ConcludeEvent) {
			logger.InfoContext(ctx, "game concluded",
				"player", e.Player,
				"outcome", e.Outcome,
				"attempts", e.Attempts,
				"timed_out", e.TimedOut,
			)
		},
	}
}

// Merge returns hooks that call each set in order.
func Merge(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var merged domain.LifecycleHooks
	for _, h := range sets {
		h := h
		if h.OnTransition != nil {
			prev := merged.OnTransition
			merged.OnTransition = func(ctx context.Context, e *domain.TransitionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTransition(ctx, e)
			}
		}
		if h.OnStale != nil {
			prev := merged.OnStale
			merged.OnStale = func(ctx context.Context, e *domain.StaleEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnStale(ctx, e)
			}
		}
		if h.OnConclude != nil {
			prev := merged.OnConclude
			merged.OnConclude = func(ctx context.Context, e *domain.ConcludeEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnConclude(ctx, e)
			}
		}
	}
	return merged
}
