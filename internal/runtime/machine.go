package runtime

import (
	"fmt"

	"github.com/aretw0/gamesession/pkg/domain"
)

// Transition is the result of applying an event.
type Transition struct {
	Prev    *domain.SessionRecord
	Next    *domain.SessionRecord
	Effects []Effect
}

// Request returns the service request of the transition, if any.
func (t *Transition) Request() (domain.ServiceRequest, bool) {
	for _, e := range t.Effects {
		if s, ok := e.(SendRequest); ok {
			return s.Request, true
		}
	}
	return nil, false
}

// Bind records the id the transport assigned to the outbound request.
func (t *Transition) Bind(id domain.MessageID) {
	t.Next.OutstandingRequestID = id
}

// Changed reports whether the record differs from the one it started from.
func (t *Transition) Changed() bool {
	return domain.Diff(t.Prev, t.Next) != nil
}

// Apply computes the transition of rec under ev for player.
//
// A rejected client action returns a protocol or validation error and a nil
// Transition. A reply or tick that no longer matches the session returns an
// error matching domain.ErrStaleEvent. rec is never modified.
func Apply(player domain.ActorID, rec *domain.SessionRecord, ev Event) (*Transition, error) {
	if rec == nil {
		rec = domain.NewSessionRecord()
	}
	t := &Transition{Prev: rec.Clone(), Next: rec.Clone()}

	var err error
	switch ev := ev.(type) {
	case ClientAction:
		err = t.clientAction(player, ev)
	case ServiceReplied:
		err = t.serviceReplied(ev)
	case TimeoutTick:
		err = t.timeout(player, ev)
	default:
		err = fmt.Errorf("unknown event %T", ev)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transition) emit(e ...Effect) {
	t.Effects = append(t.Effects, e...)
}

func (t *Transition) clientAction(player domain.ActorID, ev ClientAction) error {
	switch a := ev.Action.(type) {
	case domain.StartGame:
		return t.startGame(player, ev.Caller)
	case domain.SubmitGuess:
		return t.submitGuess(player, ev.Caller, a.Word)
	case nil:
		return fmt.Errorf("%w: missing action", domain.ErrValidation)
	default:
		return fmt.Errorf("%w: action %s is not a client action", domain.ErrProtocolViolation, a.Kind())
	}
}

func (t *Transition) startGame(player domain.ActorID, caller domain.MessageID) error {
	next := t.Next
	switch p := next.Phase.(type) {
	case domain.ReplyReceived:
		if _, ok := p.Reply.(domain.GameStartedReply); !ok {
			return domain.ErrGameInProgress
		}
		next.Phase = domain.AwaitingClientInput{}
		t.emit(Reply{Caller: caller, Event: domain.GameStarted{}})
		return nil

	case domain.AwaitingServiceInitReply:
		// The start was never answered: send it again as a new game.
		if next.PendingCallerID != caller {
			t.emit(Supersede{Caller: next.PendingCallerID})
		}
		t.beginGame(player, caller)
		return nil

	case domain.Initialized, domain.Concluded:
		t.beginGame(player, caller)
		return nil

	case domain.AwaitingClientInput, domain.AwaitingServiceGuessReply:
		return domain.ErrGameInProgress

	default:
		return fmt.Errorf("unknown phase %T", p)
	}
}

func (t *Transition) beginGame(player domain.ActorID, caller domain.MessageID) {
	next := t.Next
	next.SessionID = caller
	next.PendingCallerID = caller
	next.OutstandingRequestID = ""
	next.AttemptCount = 0
	next.Phase = domain.AwaitingServiceInitReply{}
	t.emit(
		SendRequest{Request: domain.StartGameRequest{Player: player}},
		ScheduleWatchdog{SessionID: caller},
		Suspend{Caller: caller},
	)
}

func (t *Transition) submitGuess(player domain.ActorID, caller domain.MessageID, word string) error {
	next := t.Next
	switch p := next.Phase.(type) {
	case domain.ReplyReceived:
		verified, ok := p.Reply.(domain.GuessVerifiedReply)
		if !ok {
			return domain.ErrNoActiveGame
		}
		next.AttemptCount++
		switch {
		case verified.IsCorrectGuess():
			next.Phase = domain.Concluded{Outcome: domain.Victory}
			t.emit(Reply{Caller: caller, Event: domain.GameEnded{Outcome: domain.Victory}})
		case next.AttemptCount >= domain.MaxAttempts:
			next.Phase = domain.Concluded{Outcome: domain.Defeat}
			t.emit(Reply{Caller: caller, Event: domain.GameEnded{Outcome: domain.Defeat}})
		default:
			next.Phase = domain.AwaitingClientInput{}
			t.emit(Reply{Caller: caller, Event: verified.Outcome()})
		}
		return nil

	case domain.AwaitingClientInput, domain.AwaitingServiceGuessReply:
		if err := domain.ValidateGuess(word); err != nil {
			return err
		}
		if _, retry := p.(domain.AwaitingServiceGuessReply); retry && next.PendingCallerID != caller {
			t.emit(Supersede{Caller: next.PendingCallerID})
		}
		next.PendingCallerID = caller
		next.OutstandingRequestID = ""
		next.Phase = domain.AwaitingServiceGuessReply{}
		t.emit(
			SendRequest{Request: domain.VerifyGuessRequest{Player: player, Guess: word}},
			Suspend{Caller: caller},
		)
		return nil

	case domain.Initialized, domain.AwaitingServiceInitReply, domain.Concluded:
		return domain.ErrNoActiveGame

	default:
		return fmt.Errorf("unknown phase %T", p)
	}
}

func (t *Transition) serviceReplied(ev ServiceReplied) error {
	next := t.Next
	if ev.ReplyTo.IsZero() || ev.ReplyTo != next.OutstandingRequestID {
		return fmt.Errorf("%w: reply to %q, outstanding %q", domain.ErrStaleEvent, ev.ReplyTo, next.OutstandingRequestID)
	}

	var expected bool
	switch next.Phase.(type) {
	case domain.AwaitingServiceInitReply:
		_, expected = ev.Reply.(domain.GameStartedReply)
	case domain.AwaitingServiceGuessReply:
		_, expected = ev.Reply.(domain.GuessVerifiedReply)
	}
	if !expected {
		return fmt.Errorf("%w: %T does not answer phase %s", domain.ErrStaleEvent, ev.Reply, next.Phase.Name())
	}

	next.Phase = domain.ReplyReceived{Reply: ev.Reply}
	next.OutstandingRequestID = ""
	// Clone detaches the cached reply from the caller's slices.
	*next = *next.Clone()
	t.emit(Resume{Caller: next.PendingCallerID})
	return nil
}

func (t *Transition) timeout(player domain.ActorID, ev TimeoutTick) error {
	next := t.Next
	if ev.SessionID.IsZero() || ev.SessionID != next.SessionID {
		return fmt.Errorf("%w: watchdog for %q, session %q", domain.ErrStaleEvent, ev.SessionID, next.SessionID)
	}
	if domain.IsConcluded(next.Phase) {
		return fmt.Errorf("%w: session %q already concluded", domain.ErrStaleEvent, ev.SessionID)
	}

	ended := domain.GameEnded{Outcome: domain.Defeat}
	if domain.IsAwaitingService(next.Phase) {
		t.emit(Reply{Caller: next.PendingCallerID, Event: ended})
	}
	next.Phase = domain.Concluded{Outcome: domain.Defeat}
	next.OutstandingRequestID = ""
	t.emit(Notify{Player: player, Event: ended})
	return nil
}
