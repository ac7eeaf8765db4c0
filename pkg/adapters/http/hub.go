package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// DefaultPendingLimit is how many undrained events a Hub keeps per player.
const DefaultPendingLimit = 32

// Hub implements ports.Notifier. Events are kept per player until drained
// and are also broadcast to live SSE subscribers. Once a player has limit
// undrained events the oldest are dropped.
type Hub struct {
	mu          sync.RWMutex
	pending     map[domain.ActorID][]domain.EventEnvelope
	subscribers map[domain.ActorID]map[chan<- string]struct{}
	limit       int
	logger      *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithPendingLimit caps the undrained events kept per player.
func WithPendingLimit(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.limit = n
		}
	}
}

// NewHub creates an empty hub. A nil logger discards output.
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Hub{
		pending:     make(map[domain.ActorID][]domain.EventEnvelope),
		subscribers: make(map[domain.ActorID]map[chan<- string]struct{}),
		limit:       DefaultPendingLimit,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Notify records ev for player and broadcasts it.
func (h *Hub) Notify(ctx context.Context, player domain.ActorID, ev domain.ClientEvent) error {
	env := domain.EncodeEvent(ev)
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	h.mu.Lock()
	evs := append(h.pending[player], env)
	if over := len(evs) - h.limit; over > 0 {
		h.logger.Warn("notification backlog full, dropping oldest", "player", player, "dropped", over)
		evs = append([]domain.EventEnvelope(nil), evs[over:]...)
	}
	h.pending[player] = evs
	h.mu.Unlock()

	h.Broadcast(player, string(data))
	return nil
}

// Drain returns and clears the events recorded for player.
func (h *Hub) Drain(player domain.ActorID) []domain.EventEnvelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	evs := h.pending[player]
	delete(h.pending, player)
	if evs == nil {
		return []domain.EventEnvelope{}
	}
	return evs
}

// Subscribe registers a live listener for player.
func (h *Hub) Subscribe(player domain.ActorID) (<-chan string, func()) {
	ch := make(chan string, 16)

	h.mu.Lock()
	if h.subscribers[player] == nil {
		h.subscribers[player] = make(map[chan<- string]struct{})
	}
	h.subscribers[player][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[player], ch)
			if len(h.subscribers[player]) == 0 {
				delete(h.subscribers, player)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast sends msg to every subscriber of player. Slow subscribers lose messages.
func (h *Hub) Broadcast(player domain.ActorID, msg string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[player] {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("sse buffer full, dropping event", "player", player)
		}
	}
}

// SubscribeEvents handles GET /events/{player}.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	player := domain.ActorID(chi.URLParam(r, "player"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Hub.Subscribe(player)
	defer cancel()
	s.logger.Debug("sse subscribed", "player", player)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("sse disconnected", "player", player)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
