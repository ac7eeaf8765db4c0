package orchestrator

import "github.com/aretw0/gamesession/pkg/domain"

// Completion receives the answer to a call. Exactly one of ev and err is set,
// except for watchdog calls, which complete with neither.
type Completion func(ev domain.ClientEvent, err error)

// Call is one inbound message addressed to the orchestrator.
type Call struct {
	ID     domain.MessageID
	Source domain.ActorID
	Action domain.Action
	Done   Completion

	completed bool
}

func (c *Call) complete(ev domain.ClientEvent, err error) {
	if c == nil || c.completed {
		return
	}
	c.completed = true
	if c.Done != nil {
		c.Done(ev, err)
	}
}
