// Package ids generates message identities.
package ids

import (
	"fmt"
	"sync"

	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/google/uuid"
)

// UUIDv7 generates time-sortable message ids. Safe for concurrent use.
type UUIDv7 struct{}

// Next returns a hyphenated UUIDv7.
func (UUIDv7) Next() domain.MessageID {
	return domain.MessageID(uuid.Must(uuid.NewV7()).String())
}

// Sequence returns "<prefix>-1", "<prefix>-2", ... for deterministic tests
// and golden output. Safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      uint64
}

// NewSequence creates a sequence generator.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next returns the next id in the sequence.
func (s *Sequence) Next() domain.MessageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return domain.MessageID(fmt.Sprintf("%s-%d", s.prefix, s.n))
}
