package domain

// PhaseName is the stable, serializable name of a Phase variant.
type PhaseName string

const (
	PhaseInitialized               PhaseName = "initialized"
	PhaseAwaitingClientInput       PhaseName = "awaiting_client_input"
	PhaseAwaitingServiceInitReply  PhaseName = "awaiting_service_init_reply"
	PhaseAwaitingServiceGuessReply PhaseName = "awaiting_service_guess_reply"
	PhaseReplyReceived             PhaseName = "reply_received"
	PhaseConcluded                 PhaseName = "concluded"
)

// Phase is the current state of a session in the orchestration state machine.
// Exactly one variant is active at a time. The interface is sealed: only the
// variants declared in this file implement it, so a type switch over them is exhaustive.
type Phase interface {
	Name() PhaseName
	sealedPhase()
}

// Initialized is the phase of a session that has never started a game.
type Initialized struct{}

// AwaitingClientInput means the last reply was delivered and the player may act again.
type AwaitingClientInput struct{}

// AwaitingServiceInitReply means a start request is outstanding and its caller is suspended.
type AwaitingServiceInitReply struct{}

// AwaitingServiceGuessReply means a verify request is outstanding and its caller is suspended.
type AwaitingServiceGuessReply struct{}

// ReplyReceived caches a service reply until the suspended caller consumes it.
type ReplyReceived struct {
	Reply ServiceReply
}

// Concluded is terminal for the current game. A new StartGame reuses the record.
type Concluded struct {
	Outcome Outcome
}

func (Initialized) Name() PhaseName               { return PhaseInitialized }
func (AwaitingClientInput) Name() PhaseName       { return PhaseAwaitingClientInput }
func (AwaitingServiceInitReply) Name() PhaseName  { return PhaseAwaitingServiceInitReply }
func (AwaitingServiceGuessReply) Name() PhaseName { return PhaseAwaitingServiceGuessReply }
func (ReplyReceived) Name() PhaseName             { return PhaseReplyReceived }
func (Concluded) Name() PhaseName                 { return PhaseConcluded }

func (Initialized) sealedPhase()               {}
func (AwaitingClientInput) sealedPhase()       {}
func (AwaitingServiceInitReply) sealedPhase()  {}
func (AwaitingServiceGuessReply) sealedPhase() {}
func (ReplyReceived) sealedPhase()             {}
func (Concluded) sealedPhase()                 {}

// IsAwaitingService reports whether a request to the scoring service is outstanding.
func IsAwaitingService(p Phase) bool {
	switch p.(type) {
	case AwaitingServiceInitReply, AwaitingServiceGuessReply:
		return true
	}
	return false
}

// IsConcluded reports whether the phase is terminal.
func IsConcluded(p Phase) bool {
	_, ok := p.(Concluded)
	return ok
}

// Outcome is the result of a concluded game.
type Outcome string

const (
	Victory Outcome = "victory"
	Defeat  Outcome = "defeat"
)
