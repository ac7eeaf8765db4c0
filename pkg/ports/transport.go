package ports

import (
	"context"

	"github.com/aretw0/gamesession/pkg/domain"
)

// Transport delivers requests to the scoring service.
// The reply arrives later, asynchronously, through the orchestrator's reply entry point.
type Transport interface {
	// Send delivers req to the service at addr and returns the id assigned to the outbound message.
	// A reply to it will carry that id as its replied-to id.
	Send(ctx context.Context, addr domain.ActorID, req domain.ServiceRequest) (domain.MessageID, error)
}

// Notifier pushes events to a player outside of any request/response exchange.
type Notifier interface {
	Notify(ctx context.Context, player domain.ActorID, ev domain.ClientEvent) error
}

// Scheduler delivers a self-addressed watchdog message after a delay measured in ticks.
// Delivered messages cannot be cancelled; receivers must ignore stale ones.
type Scheduler interface {
	Schedule(ctx context.Context, delay uint32, check domain.QueryTimeoutStatus) error
}

// Service is the scoring service contract. In-process transports call it directly.
type Service interface {
	Handle(ctx context.Context, req domain.ServiceRequest) (domain.ServiceReply, error)
}

// IDGenerator assigns message identities.
type IDGenerator interface {
	Next() domain.MessageID
}
