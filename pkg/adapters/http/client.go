package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/gamesession/internal/ids"
	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/ports"
)

// DefaultClientTimeout bounds a single outbound request.
const DefaultClientTimeout = 10 * time.Second

// DefaultSendTimeout bounds Transport.Send. Send runs on the orchestrator
// loop, so every player waits while it is in flight.
const DefaultSendTimeout = 500 * time.Millisecond

// ServiceMessage is the body of POST /requests on a ServiceHandler.
type ServiceMessage struct {
	MessageID domain.MessageID       `json:"message_id"`
	To        domain.ActorID         `json:"to"`
	Request   domain.RequestEnvelope `json:"request"`
}

// Transport implements ports.Transport by posting to a remote ServiceHandler.
type Transport struct {
	baseURL string
	client  *http.Client
	ids     ports.IDGenerator
	timeout time.Duration
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) {
		t.client = c
	}
}

// WithMessageIDs sets the generator of outbound message ids.
func WithMessageIDs(gen ports.IDGenerator) TransportOption {
	return func(t *Transport) {
		t.ids = gen
	}
}

// WithSendTimeout bounds how long Send waits for the service to accept a
// request. Non-positive values keep the default.
func WithSendTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// NewTransport creates a transport for the service at baseURL.
func NewTransport(baseURL string, opts ...TransportOption) *Transport {
	t := &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultClientTimeout},
		ids:     ids.UUIDv7{},
		timeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send posts req and returns its message id once the service accepted it.
// A service that does not accept within the send timeout fails the send.
func (t *Transport) Send(ctx context.Context, addr domain.ActorID, req domain.ServiceRequest) (domain.MessageID, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	msg := ServiceMessage{
		MessageID: t.ids.Next(),
		To:        addr,
		Request:   domain.EncodeRequest(req),
	}
	if err := postJSON(ctx, t.client, t.baseURL+"/requests", msg); err != nil {
		return "", err
	}
	return msg.MessageID, nil
}

// ServiceHandler serves a ports.Service over HTTP. Replies are posted
// asynchronously to the orchestrator at replyURL.
type ServiceHandler struct {
	service  ports.Service
	replyURL string
	client   *http.Client
	logger   *slog.Logger
}

// NewServiceHandler creates a handler. A nil logger discards output.
func NewServiceHandler(service ports.Service, replyURL string, logger *slog.Logger) *ServiceHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ServiceHandler{
		service:  service,
		replyURL: strings.TrimRight(replyURL, "/"),
		client:   &http.Client{Timeout: DefaultClientTimeout},
		logger:   logger,
	}
}

// ServeHTTP accepts POST /requests.
func (h *ServiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/requests" {
		http.NotFound(w, r)
		return
	}

	var msg ServiceMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := msg.Request.Decode()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg.MessageID.IsZero() {
		http.Error(w, "missing message_id", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)

	go h.answer(msg.MessageID, req)
}

func (h *ServiceHandler) answer(id domain.MessageID, req domain.ServiceRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
	defer cancel()

	reply, err := h.service.Handle(ctx, req)
	if err != nil {
		h.logger.Warn("service rejected request", "message_id", id, "err", err)
		return
	}
	body := ReplyRequest{ReplyTo: id, Reply: domain.EncodeReply(reply)}
	if err := postJSON(ctx, h.client, h.replyURL+"/replies", body); err != nil {
		h.logger.Error("reply delivery failed", "message_id", id, "err", err)
	}
}

func postJSON(ctx context.Context, client *http.Client, url string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", url, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: %s: %s", url, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
