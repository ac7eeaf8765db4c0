package loopback

import (
	"context"
	"sync"

	"github.com/aretw0/gamesession/pkg/domain"
)

// Inbox implements ports.Notifier by queueing events per player.
type Inbox struct {
	mu     sync.Mutex
	events map[domain.ActorID][]domain.ClientEvent
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{events: make(map[domain.ActorID][]domain.ClientEvent)}
}

// Notify appends ev to the player's queue.
func (i *Inbox) Notify(ctx context.Context, player domain.ActorID, ev domain.ClientEvent) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events[player] = append(i.events[player], ev)
	return nil
}

// Drain returns and clears the player's queue.
func (i *Inbox) Drain(player domain.ActorID) []domain.ClientEvent {
	i.mu.Lock()
	defer i.mu.Unlock()
	evs := i.events[player]
	delete(i.events, player)
	return evs
}
