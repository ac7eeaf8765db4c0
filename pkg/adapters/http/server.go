package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlayerHeader carries the identity of the caller of POST /actions.
const PlayerHeader = "X-Player"

// Orchestrator is the part of orchestrator.Loop the server needs.
type Orchestrator interface {
	Do(ctx context.Context, player domain.ActorID, action domain.Action) (domain.ClientEvent, error)
	Deliver(replyTo domain.MessageID, reply domain.ServiceReply) error
	State(ctx context.Context) (domain.StateSnapshot, error)
}

// Server serves the orchestrator routes.
type Server struct {
	Orch     Orchestrator
	Hub      *Hub
	Version  string
	self     domain.ActorID
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves g on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithSelf sets the orchestrator's own address. Callers may not act under it.
func WithSelf(addr domain.ActorID) Option {
	return func(s *Server) {
		s.self = addr
	}
}

// WithVersion sets the version reported by GET /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates the HTTP handler. hub receives watchdog notifications
// and must be the orchestrator's Notifier.
func NewHandler(orch Orchestrator, hub *Hub, opts ...Option) http.Handler {
	s := &Server{
		Orch:   orch,
		Hub:    hub,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Post("/actions", s.PostAction)
	r.Post("/replies", s.PostReply)
	r.Get("/state", s.GetState)
	r.Get("/notifications/{player}", s.GetNotifications)
	r.Get("/events/{player}", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ActionRequest is the body of POST /actions.
type ActionRequest struct {
	Type    domain.ActionKind `json:"type"`
	Payload map[string]any    `json:"payload,omitempty"`
}

// Action decodes the request into a domain action. Timeout checks are
// internal and never accepted from a client.
func (a ActionRequest) Action() (domain.Action, error) {
	switch a.Type {
	case domain.ActionStartGame:
		return domain.StartGame{}, nil
	case domain.ActionSubmitGuess:
		var g domain.SubmitGuess
		if err := decodePayload(a.Payload, &g); err != nil {
			return nil, err
		}
		return g, nil
	case domain.ActionQueryTimeoutStatus:
		return nil, domain.ErrNotSelfAddressed
	}
	return nil, fmt.Errorf("%w: unknown action type %q", domain.ErrValidation, a.Type)
}

func decodePayload(payload map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// ReplyRequest is the body of POST /replies.
type ReplyRequest struct {
	ReplyTo domain.MessageID     `json:"reply_to"`
	Reply   domain.ReplyEnvelope `json:"reply"`
}

// PostAction handles POST /actions. It blocks until the action is answered.
func (s *Server) PostAction(w http.ResponseWriter, r *http.Request) {
	player := domain.ActorID(r.Header.Get(PlayerHeader))
	if player.IsZero() {
		s.writeError(w, fmt.Errorf("%w: missing %s header", domain.ErrValidation, PlayerHeader))
		return
	}
	if !s.self.IsZero() && player == s.self {
		s.logger.Warn("rejected action under the orchestrator address", "remote", r.RemoteAddr)
		s.writeError(w, fmt.Errorf("%w: %s is reserved", domain.ErrValidation, player))
		return
	}

	var body ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}
	action, err := body.Action()
	if err != nil {
		s.writeError(w, err)
		return
	}

	ev, err := s.Orch.Do(r.Context(), player, action)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ev == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, domain.EncodeEvent(ev))
}

// PostReply handles POST /replies.
func (s *Server) PostReply(w http.ResponseWriter, r *http.Request) {
	var body ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}
	reply, err := body.Reply.Decode()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Orch.Deliver(body.ReplyTo, reply); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Orch.State(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snap.Sessions == nil {
		snap.Sessions = []domain.SessionEntry{}
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// GetNotifications handles GET /notifications/{player}.
func (s *Server) GetNotifications(w http.ResponseWriter, r *http.Request) {
	player := domain.ActorID(chi.URLParam(r, "player"))
	s.writeJSON(w, http.StatusOK, s.Hub.Drain(player))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.Version != "" {
		resp["version"] = s.Version
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// StatusFor maps an orchestrator error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProtocolViolation), errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDelivery):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrShutdown):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
