package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the orchestrator to a caller
// matches exactly one of them with errors.Is.
var (
	// ErrValidation is returned for malformed player input or configuration.
	ErrValidation = errors.New("validation error")

	// ErrProtocolViolation is returned when an action is illegal for the current phase.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrStaleEvent marks a service reply or watchdog tick that no longer
	// matches the session. It is never surfaced to players.
	ErrStaleEvent = errors.New("stale event")

	// ErrDelivery wraps a transport failure. It aborts the current call only.
	ErrDelivery = errors.New("delivery failure")
)

var (
	// ErrInvalidGuess is returned for a guess that is not 5 lowercase ASCII letters.
	ErrInvalidGuess = fmt.Errorf("%w: invalid guess", ErrValidation)

	// ErrInvalidServiceAddress is returned when the scoring service address is empty.
	ErrInvalidServiceAddress = fmt.Errorf("%w: invalid scoring service address", ErrValidation)

	// ErrGameInProgress is returned when StartGame arrives while a game is running.
	ErrGameInProgress = fmt.Errorf("%w: player is already in a game", ErrProtocolViolation)

	// ErrNoActiveGame is returned when SubmitGuess arrives without a running game.
	ErrNoActiveGame = fmt.Errorf("%w: player is not in a game", ErrProtocolViolation)

	// ErrNotSelfAddressed is returned when a watchdog message comes from anyone but the orchestrator.
	ErrNotSelfAddressed = fmt.Errorf("%w: timeout checks are internal", ErrProtocolViolation)
)

// ErrSessionNotFound is returned when a player has no session record in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSuperseded completes a suspended call that was replaced by a retry of the same action.
var ErrSuperseded = errors.New("call superseded by a newer request")

// ErrShutdown completes calls that are still suspended when the orchestrator stops.
var ErrShutdown = errors.New("orchestrator shutting down")

// GuessError describes why a guess was rejected.
type GuessError struct {
	Word   string
	Reason string
}

func (e *GuessError) Error() string {
	return fmt.Sprintf("invalid guess %q: %s", e.Word, e.Reason)
}

// Is makes every GuessError match ErrInvalidGuess (and therefore ErrValidation).
func (e *GuessError) Is(target error) bool {
	return target == ErrInvalidGuess || target == ErrValidation
}
