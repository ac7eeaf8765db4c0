package domain

import "slices"

// GuessLength is the number of letters in every word of the game.
const GuessLength = 5

// MaxAttempts is the number of verified guesses a player gets per game.
const MaxAttempts = 5

// ActionKind names an Action on the wire.
type ActionKind string

const (
	ActionStartGame          ActionKind = "start_game"
	ActionSubmitGuess        ActionKind = "submit_guess"
	ActionQueryTimeoutStatus ActionKind = "query_timeout_status"
)

// Action is a request addressed to the orchestrator.
type Action interface {
	Kind() ActionKind
	sealedAction()
}

// StartGame asks for a new game (or a retry of a start that has not been answered yet).
type StartGame struct{}

// SubmitGuess asks the scoring service to verify a word.
type SubmitGuess struct {
	Word string `json:"word" mapstructure:"word"`
}

// QueryTimeoutStatus is the watchdog message. It is only accepted when the
// orchestrator sends it to itself.
type QueryTimeoutStatus struct {
	Player    ActorID   `json:"player" mapstructure:"player"`
	SessionID MessageID `json:"session_id" mapstructure:"session_id"`
}

func (StartGame) Kind() ActionKind          { return ActionStartGame }
func (SubmitGuess) Kind() ActionKind        { return ActionSubmitGuess }
func (QueryTimeoutStatus) Kind() ActionKind { return ActionQueryTimeoutStatus }

func (StartGame) sealedAction()          {}
func (SubmitGuess) sealedAction()        {}
func (QueryTimeoutStatus) sealedAction() {}

// EventKind names a ClientEvent on the wire.
type EventKind string

const (
	EventGameStarted  EventKind = "game_started"
	EventGuessOutcome EventKind = "guess_outcome"
	EventGameEnded    EventKind = "game_ended"
)

// ClientEvent is what a player receives, either as the reply to an action or
// as an unsolicited notification.
type ClientEvent interface {
	Kind() EventKind
	sealedEvent()
}

// GameStarted confirms that the scoring service accepted a new game.
type GameStarted struct{}

// GuessOutcome reports which positions of the guess are exact matches and
// which guess letters occur elsewhere in the target.
type GuessOutcome struct {
	ExactPositions []int
	PresentLetters []int
}

// GameEnded reports the end of a game.
type GameEnded struct {
	Outcome Outcome
}

func (GameStarted) Kind() EventKind  { return EventGameStarted }
func (GuessOutcome) Kind() EventKind { return EventGuessOutcome }
func (GameEnded) Kind() EventKind    { return EventGameEnded }

func (GameStarted) sealedEvent()  {}
func (GuessOutcome) sealedEvent() {}
func (GameEnded) sealedEvent()    {}

// ServiceRequest is a message the orchestrator sends to the scoring service.
type ServiceRequest interface {
	Subject() ActorID
	sealedRequest()
}

// StartGameRequest asks the service to pick a target word for Player.
type StartGameRequest struct {
	Player ActorID
}

// VerifyGuessRequest asks the service to score Guess against Player's target.
type VerifyGuessRequest struct {
	Player ActorID
	Guess  string
}

func (r StartGameRequest) Subject() ActorID   { return r.Player }
func (r VerifyGuessRequest) Subject() ActorID { return r.Player }

func (StartGameRequest) sealedRequest()   {}
func (VerifyGuessRequest) sealedRequest() {}

// ServiceReply is a message the scoring service sends back.
// Subject identifies the session the reply belongs to.
type ServiceReply interface {
	Subject() ActorID
	sealedReply()
}

// GameStartedReply acknowledges a StartGameRequest.
type GameStartedReply struct {
	Player ActorID
}

// GuessVerifiedReply carries the score of a VerifyGuessRequest.
type GuessVerifiedReply struct {
	Player         ActorID
	ExactPositions []int
	PresentLetters []int
}

func (r GameStartedReply) Subject() ActorID   { return r.Player }
func (r GuessVerifiedReply) Subject() ActorID { return r.Player }

func (GameStartedReply) sealedReply()   {}
func (GuessVerifiedReply) sealedReply() {}

var allPositions = []int{0, 1, 2, 3, 4}

// IsCorrectGuess reports whether every position is an exact match.
func (r GuessVerifiedReply) IsCorrectGuess() bool {
	return slices.Equal(r.ExactPositions, allPositions)
}

// Outcome translates the reply into the event a player sees for a
// non-terminal guess.
func (r GuessVerifiedReply) Outcome() GuessOutcome {
	return GuessOutcome{
		ExactPositions: slices.Clone(r.ExactPositions),
		PresentLetters: slices.Clone(r.PresentLetters),
	}
}

// ValidateGuess checks that a word is GuessLength ASCII lowercase letters.
func ValidateGuess(word string) error {
	if len(word) != GuessLength {
		return &GuessError{Word: word, Reason: "must be exactly 5 letters"}
	}
	for i := 0; i < len(word); i++ {
		if c := word[i]; c < 'a' || c > 'z' {
			return &GuessError{Word: word, Reason: "must contain only lowercase letters"}
		}
	}
	return nil
}

// cloneReply returns a copy of r that shares no slices with it.
func cloneReply(r ServiceReply) ServiceReply {
	if v, ok := r.(GuessVerifiedReply); ok {
		v.ExactPositions = slices.Clone(v.ExactPositions)
		v.PresentLetters = slices.Clone(v.PresentLetters)
		return v
	}
	return r
}
