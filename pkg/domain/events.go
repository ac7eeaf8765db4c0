package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventStale      EventType = "stale"
	EventConclude   EventType = "conclude"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Player    ActorID   `json:"player"`
}

// TransitionEvent is emitted after a session record changes phase or counters.
type TransitionEvent struct {
	EventBase
	From PhaseName   `json:"from"`
	To   PhaseName   `json:"to"`
	Diff *RecordDiff `json:"diff,omitempty"`
}

// StaleEvent is emitted when a service reply or watchdog tick is dropped.
type StaleEvent struct {
	EventBase
	Source    string    `json:"source"` // "reply" or "timeout"
	MessageID MessageID `json:"message_id"`
}

// ConcludeEvent is emitted when a game ends.
type ConcludeEvent struct {
	EventBase
	Outcome  Outcome `json:"outcome"`
	Attempts int     `json:"attempts"`
	TimedOut bool    `json:"timed_out,omitempty"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnStale      func(context.Context, *StaleEvent)
	OnConclude   func(context.Context, *ConcludeEvent)
}
