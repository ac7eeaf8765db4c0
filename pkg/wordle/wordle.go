// Package wordle is a reference scoring service for the orchestrator.
package wordle

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/aretw0/gamesession/pkg/domain"
)

// ErrNoGame is returned when a guess arrives for a player with no target word.
var ErrNoGame = errors.New("wordle: no game for player")

// DefaultWords is the built-in word bank.
var DefaultWords = []string{
	"horse", "house", "crane", "slate", "ghost", "plant", "brick", "sword",
	"flame", "trace", "pride", "mouse", "cloud", "shore", "grape", "lemon",
}

// Picker chooses the target word for a new game.
type Picker func(player domain.ActorID) string

// Service implements ports.Service.
type Service struct {
	pick Picker

	mu      sync.Mutex
	targets map[domain.ActorID]string
}

// Option configures a Service.
type Option func(*Service)

// WithPicker sets the target picker.
func WithPicker(p Picker) Option {
	return func(s *Service) {
		s.pick = p
	}
}

// WithTarget makes every game use word.
func WithTarget(word string) Option {
	return WithPicker(func(domain.ActorID) string { return word })
}

// WithWords picks uniformly from words.
func WithWords(words []string) Option {
	bank := append([]string(nil), words...)
	return WithPicker(func(domain.ActorID) string {
		return bank[rand.IntN(len(bank))]
	})
}

// NewService creates a service picking from DefaultWords.
func NewService(opts ...Option) *Service {
	s := &Service{targets: make(map[domain.ActorID]string)}
	WithWords(DefaultWords)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle answers a start or verify request.
func (s *Service) Handle(ctx context.Context, req domain.ServiceRequest) (domain.ServiceReply, error) {
	switch r := req.(type) {
	case domain.StartGameRequest:
		target := strings.ToLower(s.pick(r.Player))
		if len(target) != domain.GuessLength {
			return nil, fmt.Errorf("wordle: target %q is not %d letters", target, domain.GuessLength)
		}
		s.mu.Lock()
		s.targets[r.Player] = target
		s.mu.Unlock()
		return domain.GameStartedReply{Player: r.Player}, nil

	case domain.VerifyGuessRequest:
		s.mu.Lock()
		target, ok := s.targets[r.Player]
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrNoGame, r.Player)
		}
		exact, present := Score(target, r.Guess)
		return domain.GuessVerifiedReply{Player: r.Player, ExactPositions: exact, PresentLetters: present}, nil

	default:
		return nil, fmt.Errorf("wordle: unsupported request %T", req)
	}
}

// Target returns the player's current target word.
func (s *Service) Target(player domain.ActorID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.targets[player]
	return w, ok
}

// Score compares guess with target position by position. exact lists the
// positions where the letters match; present lists the other positions whose
// guess letter occurs somewhere in target. Both are non-nil.
func Score(target, guess string) (exact, present []int) {
	exact, present = []int{}, []int{}
	for i := 0; i < len(guess) && i < len(target); i++ {
		switch {
		case guess[i] == target[i]:
			exact = append(exact, i)
		case strings.IndexByte(target, guess[i]) >= 0:
			present = append(present, i)
		}
	}
	return exact, present
}
