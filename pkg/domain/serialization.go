package domain

import (
	"encoding/json"
	"fmt"
)

// ReplyKind names a ServiceReply on the wire.
type ReplyKind string

const (
	ReplyGameStarted   ReplyKind = "game_started"
	ReplyGuessVerified ReplyKind = "guess_verified"
)

// RequestKind names a ServiceRequest on the wire.
type RequestKind string

const (
	RequestStartGame   RequestKind = "start_game"
	RequestVerifyGuess RequestKind = "verify_guess"
)

// ReplyEnvelope is the tagged wire form of a ServiceReply.
type ReplyEnvelope struct {
	Kind           ReplyKind `json:"kind"`
	Player         ActorID   `json:"player"`
	ExactPositions []int     `json:"exact_positions,omitempty"`
	PresentLetters []int     `json:"present_letters,omitempty"`
}

// EncodeReply converts a reply into its wire form.
func EncodeReply(r ServiceReply) ReplyEnvelope {
	switch v := r.(type) {
	case GameStartedReply:
		return ReplyEnvelope{Kind: ReplyGameStarted, Player: v.Player}
	case GuessVerifiedReply:
		return ReplyEnvelope{
			Kind:           ReplyGuessVerified,
			Player:         v.Player,
			ExactPositions: v.ExactPositions,
			PresentLetters: v.PresentLetters,
		}
	}
	return ReplyEnvelope{}
}

// Decode converts the wire form back into a ServiceReply.
func (e ReplyEnvelope) Decode() (ServiceReply, error) {
	if e.Player.IsZero() {
		return nil, fmt.Errorf("%w: reply without player", ErrValidation)
	}
	switch e.Kind {
	case ReplyGameStarted:
		return GameStartedReply{Player: e.Player}, nil
	case ReplyGuessVerified:
		exact := e.ExactPositions
		if exact == nil {
			exact = []int{}
		}
		present := e.PresentLetters
		if present == nil {
			present = []int{}
		}
		return GuessVerifiedReply{Player: e.Player, ExactPositions: exact, PresentLetters: present}, nil
	}
	return nil, fmt.Errorf("%w: unknown reply kind %q", ErrValidation, e.Kind)
}

// RequestEnvelope is the tagged wire form of a ServiceRequest.
type RequestEnvelope struct {
	Kind   RequestKind `json:"kind"`
	Player ActorID     `json:"player"`
	Guess  string      `json:"guess,omitempty"`
}

// EncodeRequest converts a request into its wire form.
func EncodeRequest(r ServiceRequest) RequestEnvelope {
	switch v := r.(type) {
	case StartGameRequest:
		return RequestEnvelope{Kind: RequestStartGame, Player: v.Player}
	case VerifyGuessRequest:
		return RequestEnvelope{Kind: RequestVerifyGuess, Player: v.Player, Guess: v.Guess}
	}
	return RequestEnvelope{}
}

// Decode converts the wire form back into a ServiceRequest.
func (e RequestEnvelope) Decode() (ServiceRequest, error) {
	switch e.Kind {
	case RequestStartGame:
		return StartGameRequest{Player: e.Player}, nil
	case RequestVerifyGuess:
		return VerifyGuessRequest{Player: e.Player, Guess: e.Guess}, nil
	}
	return nil, fmt.Errorf("%w: unknown request kind %q", ErrValidation, e.Kind)
}

// EventEnvelope is the tagged wire form of a ClientEvent.
type EventEnvelope struct {
	Kind           EventKind `json:"kind"`
	ExactPositions []int     `json:"exact_positions,omitempty"`
	PresentLetters []int     `json:"present_letters,omitempty"`
	Outcome        Outcome   `json:"outcome,omitempty"`
}

// EncodeEvent converts an event into its wire form.
func EncodeEvent(ev ClientEvent) EventEnvelope {
	switch v := ev.(type) {
	case GameStarted:
		return EventEnvelope{Kind: EventGameStarted}
	case GuessOutcome:
		return EventEnvelope{Kind: EventGuessOutcome, ExactPositions: v.ExactPositions, PresentLetters: v.PresentLetters}
	case GameEnded:
		return EventEnvelope{Kind: EventGameEnded, Outcome: v.Outcome}
	}
	return EventEnvelope{}
}

// Decode converts the wire form back into a ClientEvent.
func (e EventEnvelope) Decode() (ClientEvent, error) {
	switch e.Kind {
	case EventGameStarted:
		return GameStarted{}, nil
	case EventGuessOutcome:
		exact, present := e.ExactPositions, e.PresentLetters
		if exact == nil {
			exact = []int{}
		}
		if present == nil {
			present = []int{}
		}
		return GuessOutcome{ExactPositions: exact, PresentLetters: present}, nil
	case EventGameEnded:
		return GameEnded{Outcome: e.Outcome}, nil
	}
	return nil, fmt.Errorf("%w: unknown event kind %q", ErrValidation, e.Kind)
}

// phaseWire is the tagged JSON form of a Phase.
type phaseWire struct {
	Name    PhaseName      `json:"name"`
	Reply   *ReplyEnvelope `json:"reply,omitempty"`
	Outcome Outcome        `json:"outcome,omitempty"`
}

func encodePhase(p Phase) phaseWire {
	switch v := p.(type) {
	case ReplyReceived:
		env := EncodeReply(v.Reply)
		return phaseWire{Name: PhaseReplyReceived, Reply: &env}
	case Concluded:
		return phaseWire{Name: PhaseConcluded, Outcome: v.Outcome}
	case nil:
		return phaseWire{Name: PhaseInitialized}
	}
	return phaseWire{Name: p.Name()}
}

func (w phaseWire) decode() (Phase, error) {
	switch w.Name {
	case PhaseInitialized, "":
		return Initialized{}, nil
	case PhaseAwaitingClientInput:
		return AwaitingClientInput{}, nil
	case PhaseAwaitingServiceInitReply:
		return AwaitingServiceInitReply{}, nil
	case PhaseAwaitingServiceGuessReply:
		return AwaitingServiceGuessReply{}, nil
	case PhaseReplyReceived:
		if w.Reply == nil {
			return nil, fmt.Errorf("phase %s without reply", w.Name)
		}
		reply, err := w.Reply.Decode()
		if err != nil {
			return nil, err
		}
		return ReplyReceived{Reply: reply}, nil
	case PhaseConcluded:
		if w.Outcome != Victory && w.Outcome != Defeat {
			return nil, fmt.Errorf("phase %s with unknown outcome %q", w.Name, w.Outcome)
		}
		return Concluded{Outcome: w.Outcome}, nil
	}
	return nil, fmt.Errorf("unknown phase %q", w.Name)
}

type recordWire struct {
	SessionID            MessageID `json:"session_id"`
	PendingCallerID      MessageID `json:"pending_caller_id"`
	OutstandingRequestID MessageID `json:"outstanding_request_id"`
	AttemptCount         int       `json:"attempt_count"`
	Phase                phaseWire `json:"phase"`
}

// MarshalJSON serializes the record with a tagged phase.
func (r SessionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordWire{
		SessionID:            r.SessionID,
		PendingCallerID:      r.PendingCallerID,
		OutstandingRequestID: r.OutstandingRequestID,
		AttemptCount:         r.AttemptCount,
		Phase:                encodePhase(r.Phase),
	})
}

// UnmarshalJSON deserializes the record and its tagged phase.
func (r *SessionRecord) UnmarshalJSON(data []byte) error {
	if r == nil {
		return fmt.Errorf("session record: UnmarshalJSON on nil pointer")
	}
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	phase, err := w.Phase.decode()
	if err != nil {
		return err
	}
	*r = SessionRecord{
		SessionID:            w.SessionID,
		PendingCallerID:      w.PendingCallerID,
		OutstandingRequestID: w.OutstandingRequestID,
		AttemptCount:         w.AttemptCount,
		Phase:                phase,
	}
	return nil
}
