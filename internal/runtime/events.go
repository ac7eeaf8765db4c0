package runtime

import "github.com/aretw0/gamesession/pkg/domain"

// Event is an input to the state machine.
type Event interface {
	eventName() string
}

// ClientAction is a StartGame or SubmitGuess issued by the call Caller.
// A resumed call re-enters the machine as the same ClientAction.
type ClientAction struct {
	Caller domain.MessageID
	Action domain.Action
}

// ServiceReplied is a scoring service reply correlated by ReplyTo.
type ServiceReplied struct {
	ReplyTo domain.MessageID
	Reply   domain.ServiceReply
}

// TimeoutTick is a watchdog firing for the game started by SessionID.
type TimeoutTick struct {
	SessionID domain.MessageID
}

func (ClientAction) eventName() string   { return "client_action" }
func (ServiceReplied) eventName() string { return "service_reply" }
func (TimeoutTick) eventName() string    { return "timeout" }
