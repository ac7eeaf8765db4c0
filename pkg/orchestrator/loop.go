package orchestrator

import (
	"context"
	"log/slog"

	"github.com/aretw0/gamesession/internal/ids"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/ports"
)

// Loop owns an Orchestrator and feeds it one event at a time.
//
// Submit, Do, Deliver, Timeout and State are safe from any goroutine.
// Run must be called from exactly one.
type Loop struct {
	orch   *Orchestrator
	queue  *jobQueue
	ids    ports.IDGenerator
	logger *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithIDGenerator sets the generator of inbound call ids.
func WithIDGenerator(gen ports.IDGenerator) LoopOption {
	return func(l *Loop) {
		l.ids = gen
	}
}

// NewLoop wraps o. The loop shares o's logger.
func NewLoop(o *Orchestrator, opts ...LoopOption) *Loop {
	l := &Loop{
		orch:   o,
		queue:  newJobQueue(),
		ids:    ids.UUIDv7{},
		logger: o.logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Orchestrator returns the orchestrator driven by the loop.
func (l *Loop) Orchestrator() *Orchestrator {
	return l.orch
}

// Run processes events until ctx is cancelled. On exit, queued calls and
// suspended calls are completed with domain.ErrShutdown.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("orchestrator loop starting", "service", l.orch.cfg.ServiceAddress)

	for {
		if j, ok := l.queue.tryDequeue(); ok {
			j.run(ctx)
			continue
		}

		select {
		case <-ctx.Done():
			l.stop()
			l.logger.Info("orchestrator loop stopped")
			return nil
		case <-l.queue.wait():
		}
	}
}

func (l *Loop) stop() {
	for _, j := range l.queue.close() {
		if j.abort != nil {
			j.abort()
		}
	}
	l.orch.Shutdown()
}

// Submit queues call. If the loop has stopped, call is completed with
// domain.ErrShutdown and that error is returned.
func (l *Loop) Submit(call *Call) error {
	ok := l.queue.enqueue(job{
		run:   func(ctx context.Context) { l.orch.OnClientAction(ctx, call) },
		abort: func() { call.complete(nil, domain.ErrShutdown) },
	})
	if !ok {
		call.complete(nil, domain.ErrShutdown)
		return domain.ErrShutdown
	}
	return nil
}

type result struct {
	ev  domain.ClientEvent
	err error
}

// Do submits action on behalf of player and waits for the answer.
// If ctx ends first the call stays queued or suspended; its answer is discarded.
func (l *Loop) Do(ctx context.Context, player domain.ActorID, action domain.Action) (domain.ClientEvent, error) {
	done := make(chan result, 1)
	call := &Call{
		ID:     l.ids.Next(),
		Source: player,
		Action: action,
		Done: func(ev domain.ClientEvent, err error) {
			done <- result{ev: ev, err: err}
		},
	}
	if err := l.Submit(call); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.ev, r.err
	}
}

// Deliver queues a scoring service reply.
func (l *Loop) Deliver(replyTo domain.MessageID, reply domain.ServiceReply) error {
	if !l.queue.enqueue(job{run: func(ctx context.Context) { l.orch.OnServiceReply(ctx, replyTo, reply) }}) {
		return domain.ErrShutdown
	}
	return nil
}

// Timeout queues a watchdog message sent by the orchestrator to itself.
func (l *Loop) Timeout(check domain.QueryTimeoutStatus) error {
	return l.Submit(&Call{ID: l.ids.Next(), Source: l.orch.cfg.Self, Action: check})
}

// State returns the snapshot as seen between two events.
func (l *Loop) State(ctx context.Context) (domain.StateSnapshot, error) {
	type snap struct {
		s   domain.StateSnapshot
		err error
	}
	done := make(chan snap, 1)
	ok := l.queue.enqueue(job{
		run: func(ctx context.Context) {
			s, err := l.orch.OnStateQuery(ctx)
			done <- snap{s: s, err: err}
		},
		abort: func() { done <- snap{err: domain.ErrShutdown} },
	})
	if !ok {
		return domain.StateSnapshot{}, domain.ErrShutdown
	}

	select {
	case <-ctx.Done():
		return domain.StateSnapshot{}, ctx.Err()
	case r := <-done:
		return r.s, r.err
	}
}

// Recover queues Orchestrator.Recover and waits for it.
func (l *Loop) Recover(ctx context.Context) (int, error) {
	type res struct {
		n   int
		err error
	}
	done := make(chan res, 1)
	ok := l.queue.enqueue(job{
		run: func(ctx context.Context) {
			n, err := l.orch.Recover(ctx)
			done <- res{n: n, err: err}
		},
		abort: func() { done <- res{err: domain.ErrShutdown} },
	})
	if !ok {
		return 0, domain.ErrShutdown
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-done:
		return r.n, r.err
	}
}
