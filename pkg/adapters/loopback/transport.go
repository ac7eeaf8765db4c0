// Package loopback is an in-process host: it carries requests to a
// ports.Service on its own goroutine and hands the replies back to the
// orchestrator loop.
package loopback

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/gamesession/internal/ids"
	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/ports"
)

// ReplySink accepts correlated service replies. orchestrator.Loop implements it.
type ReplySink interface {
	Deliver(replyTo domain.MessageID, reply domain.ServiceReply) error
}

type envelope struct {
	id   domain.MessageID
	addr domain.ActorID
	req  domain.ServiceRequest
}

// Transport implements ports.Transport without a network.
type Transport struct {
	service ports.Service
	ids     ports.IDGenerator
	logger  *slog.Logger

	mu     sync.Mutex
	sink   ReplySink
	queue  []envelope
	drop   func(domain.ServiceRequest) bool
	signal chan struct{}
}

// Option configures a Transport.
type Option func(*Transport)

// WithIDGenerator sets the generator of outbound message ids.
func WithIDGenerator(gen ports.IDGenerator) Option {
	return func(t *Transport) {
		t.ids = gen
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New creates a transport in front of service.
func New(service ports.Service, opts ...Option) *Transport {
	t := &Transport{
		service: service,
		ids:     ids.UUIDv7{},
		logger:  logging.NewNop(),
		signal:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach sets where replies go. Replies produced before Attach are discarded.
func (t *Transport) Attach(sink ReplySink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = sink
}

// Drop makes the service silently ignore requests for which fn returns true.
// A nil fn restores normal delivery.
func (t *Transport) Drop(fn func(domain.ServiceRequest) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drop = fn
}

// Send queues req and returns its message id. It never blocks on the service.
func (t *Transport) Send(ctx context.Context, addr domain.ActorID, req domain.ServiceRequest) (domain.MessageID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := t.ids.Next()

	t.mu.Lock()
	t.queue = append(t.queue, envelope{id: id, addr: addr, req: req})
	t.mu.Unlock()

	select {
	case t.signal <- struct{}{}:
	default:
	}
	return id, nil
}

// Pending returns the number of requests not yet handled.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Flush handles every queued request and delivers the replies. It returns
// the number of replies delivered.
func (t *Transport) Flush(ctx context.Context) int {
	t.mu.Lock()
	batch := t.queue
	t.queue = nil
	sink, drop := t.sink, t.drop
	t.mu.Unlock()

	delivered := 0
	for _, env := range batch {
		if drop != nil && drop(env.req) {
			t.logger.Debug("request dropped", "message_id", env.id, "player", env.req.Subject())
			continue
		}
		reply, err := t.service.Handle(ctx, env.req)
		if err != nil {
			t.logger.Warn("service rejected request", "message_id", env.id, "player", env.req.Subject(), "err", err)
			continue
		}
		if sink == nil {
			continue
		}
		if err := sink.Deliver(env.id, reply); err != nil {
			t.logger.Warn("reply not delivered", "message_id", env.id, "err", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Run flushes as requests arrive until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.signal:
			t.Flush(ctx)
		}
	}
}
