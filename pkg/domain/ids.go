package domain

// ActorID identifies a participant of the message-passing host: a player,
// the scoring service, or the orchestrator itself.
// The empty ActorID is the zero (null) identity.
type ActorID string

// IsZero reports whether the identity is unset.
func (a ActorID) IsZero() bool { return a == "" }

func (a ActorID) String() string { return string(a) }

// MessageID is the identity the transport assigns to every message.
// It is used to correlate replies and to match delayed watchdog messages.
type MessageID string

// IsZero reports whether the identity is unset.
func (m MessageID) IsZero() bool { return m == "" }

func (m MessageID) String() string { return string(m) }
