package ports

import (
	"context"

	"github.com/aretw0/gamesession/pkg/domain"
)

// SessionStore defines the interface for persisting session records.
// Records are never deleted: a concluded session stays queryable and is reused by the next game.
type SessionStore interface {
	// Save persists the record for a given player.
	Save(ctx context.Context, player domain.ActorID, rec *domain.SessionRecord) error

	// Load retrieves the record for a given player.
	// Returns domain.ErrSessionNotFound if the player has no record.
	Load(ctx context.Context, player domain.ActorID) (*domain.SessionRecord, error)

	// List returns every player that has a record.
	List(ctx context.Context) ([]domain.ActorID, error)
}
