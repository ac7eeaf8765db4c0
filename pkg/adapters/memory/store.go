package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/gamesession/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.ActorID]*domain.SessionRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.ActorID]*domain.SessionRecord),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, player domain.ActorID, rec *domain.SessionRecord) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := rec.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[player] = copied
	return nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, player domain.ActorID) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[player]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return rec.Clone(), nil
}

// List returns every player with a record, sorted.
func (s *Store) List(ctx context.Context) ([]domain.ActorID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]domain.ActorID, 0, len(s.data))
	for id := range s.data {
		players = append(players, id)
	}
	sort.Slice(players, func(i, j int) bool { return players[i] < players[j] })
	return players, nil
}
