package runtime

import "github.com/aretw0/gamesession/pkg/domain"

// Effect is a side effect requested by a transition.
type Effect interface {
	sealedEffect()
}

// SendRequest sends Request to the scoring service. The id the transport
// assigns must be bound to the transition before it is committed.
type SendRequest struct {
	Request domain.ServiceRequest
}

// ScheduleWatchdog arms a delayed timeout check for the game SessionID.
type ScheduleWatchdog struct {
	SessionID domain.MessageID
}

// Suspend parks Caller until its reply is resumed.
type Suspend struct {
	Caller domain.MessageID
}

// Supersede completes a parked Caller with domain.ErrSuperseded.
type Supersede struct {
	Caller domain.MessageID
}

// Resume re-runs the parked Caller against the reply now cached in the record.
type Resume struct {
	Caller domain.MessageID
}

// Reply completes Caller with Event.
type Reply struct {
	Caller domain.MessageID
	Event  domain.ClientEvent
}

// Notify sends an unsolicited Event to Player.
type Notify struct {
	Player domain.ActorID
	Event  domain.ClientEvent
}

func (SendRequest) sealedEffect()      {}
func (ScheduleWatchdog) sealedEffect() {}
func (Suspend) sealedEffect()          {}
func (Supersede) sealedEffect()        {}
func (Resume) sealedEffect()           {}
func (Reply) sealedEffect()            {}
func (Notify) sealedEffect()           {}
