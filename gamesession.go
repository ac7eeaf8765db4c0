package gamesession

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/gamesession/internal/logging"
	httpadapter "github.com/aretw0/gamesession/pkg/adapters/http"
	"github.com/aretw0/gamesession/pkg/adapters/loopback"
	"github.com/aretw0/gamesession/pkg/adapters/memory"
	"github.com/aretw0/gamesession/pkg/adapters/timer"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/observability"
	"github.com/aretw0/gamesession/pkg/orchestrator"
	"github.com/aretw0/gamesession/pkg/ports"
	"github.com/aretw0/gamesession/pkg/session"
	"github.com/aretw0/gamesession/pkg/wordle"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// DefaultTickInterval is the length of one watchdog tick on the wall clock.
const DefaultTickInterval = 100 * time.Millisecond

// Scheduler is a ports.Scheduler that hands due watchdog messages to a sink.
// timer.Manual and timer.Wall implement it.
type Scheduler interface {
	ports.Scheduler
	Attach(sink timer.Sink)
}

// Engine is a ready-to-run orchestrator with its adapters: a session store,
// a scoring service connection, a watchdog scheduler and a notification hub.
type Engine struct {
	loop      *orchestrator.Loop
	hub       *httpadapter.Hub
	registry  *prometheus.Registry
	scheduler Scheduler
	loopback  *loopback.Transport
	closers   []io.Closer
	logger    *slog.Logger
}

type options struct {
	self         domain.ActorID
	delay        uint32
	tick         time.Duration
	store        ports.SessionStore
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	service      ports.Service
	remoteURL    string
	sendTimeout  time.Duration
	transportIDs ports.IDGenerator
	callIDs      ports.IDGenerator
	scheduler    Scheduler
	hooks        domain.LifecycleHooks
	closers      []io.Closer
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithSelf sets the orchestrator's own address.
func WithSelf(addr domain.ActorID) Option {
	return func(o *options) {
		o.self = addr
	}
}

// WithWatchdogDelay sets how many ticks a game may wait before it is checked.
func WithWatchdogDelay(ticks uint32) Option {
	return func(o *options) {
		o.delay = ticks
	}
}

// WithTickInterval sets the wall-clock length of a tick. Ignored with WithScheduler.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		o.tick = d
	}
}

// WithStore sets the session store. The default keeps sessions in memory.
func WithStore(store ports.SessionStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLocker adds cross-process locking around each session update.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(o *options) {
		o.locker = locker
		o.lockTTL = ttl
	}
}

// WithService hosts a scoring service in-process. The default is a
// wordle.Service with a random word per game.
func WithService(svc ports.Service) Option {
	return func(o *options) {
		o.service = svc
	}
}

// WithRemoteService sends requests to a ServiceHandler at url instead of
// hosting the service in-process. Replies arrive on POST /replies of Handler.
func WithRemoteService(url string) Option {
	return func(o *options) {
		o.remoteURL = url
	}
}

// WithSendTimeout bounds each request to a remote service. Ignored without
// WithRemoteService.
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		o.sendTimeout = d
	}
}

// WithMessageIDs sets the generator of outbound message ids.
func WithMessageIDs(gen ports.IDGenerator) Option {
	return func(o *options) {
		o.transportIDs = gen
	}
}

// WithCallIDs sets the generator of inbound call ids.
func WithCallIDs(gen ports.IDGenerator) Option {
	return func(o *options) {
		o.callIDs = gen
	}
}

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithLifecycleHooks registers observability hooks next to the built-in metrics.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithCloser registers c to be closed by Engine.Close, typically the store.
func WithCloser(c io.Closer) Option {
	return func(o *options) {
		o.closers = append(o.closers, c)
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New assembles an engine that talks to the scoring service at serviceAddress.
func New(serviceAddress domain.ActorID, opts ...Option) (*Engine, error) {
	o := options{
		self:  orchestrator.DefaultSelf,
		delay: orchestrator.DefaultWatchdogDelay,
		tick:  DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.store == nil {
		o.store = memory.NewStore()
	}
	if o.scheduler == nil {
		o.scheduler = timer.NewWall(o.tick)
	}

	e := &Engine{
		hub:       httpadapter.NewHub(o.logger),
		registry:  prometheus.NewRegistry(),
		scheduler: o.scheduler,
		closers:   o.closers,
		logger:    o.logger,
	}

	var transport ports.Transport
	if o.remoteURL != "" {
		topts := []httpadapter.TransportOption{httpadapter.WithSendTimeout(o.sendTimeout)}
		if o.transportIDs != nil {
			topts = append(topts, httpadapter.WithMessageIDs(o.transportIDs))
		}
		transport = httpadapter.NewTransport(o.remoteURL, topts...)
	} else {
		svc := o.service
		if svc == nil {
			svc = wordle.NewService()
		}
		lopts := []loopback.Option{loopback.WithLogger(o.logger)}
		if o.transportIDs != nil {
			lopts = append(lopts, loopback.WithIDGenerator(o.transportIDs))
		}
		e.loopback = loopback.New(svc, lopts...)
		transport = e.loopback
	}

	sopts := []session.Option{session.WithLogger(o.logger)}
	if o.locker != nil {
		sopts = append(sopts, session.WithLocker(o.locker))
		if o.lockTTL > 0 {
			sopts = append(sopts, session.WithLockTTL(o.lockTTL))
		}
	}

	orch, err := orchestrator.New(
		orchestrator.Config{Self: o.self, ServiceAddress: serviceAddress, WatchdogDelay: o.delay},
		orchestrator.Deps{
			Sessions:  session.NewManager(o.store, sopts...),
			Transport: transport,
			Notifier:  e.hub,
			Scheduler: o.scheduler,
		},
		orchestrator.WithLogger(o.logger),
		orchestrator.WithMetrics(observability.NewMetrics(e.registry)),
		orchestrator.WithHooks(observability.Merge(observability.LoggingHooks(o.logger), o.hooks)),
	)
	if err != nil {
		return nil, err
	}

	var loopOpts []orchestrator.LoopOption
	if o.callIDs != nil {
		loopOpts = append(loopOpts, orchestrator.WithIDGenerator(o.callIDs))
	}
	e.loop = orchestrator.NewLoop(orch, loopOpts...)
	o.scheduler.Attach(e.loop)
	if e.loopback != nil {
		e.loopback.Attach(e.loop)
	}
	return e, nil
}

// Run drives the engine until ctx is cancelled. Stored games that have not
// concluded get a fresh watchdog on startup.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.loop.Run(ctx) })
	if e.loopback != nil {
		g.Go(func() error { return e.loopback.Run(ctx) })
	}
	g.Go(func() error {
		if _, err := e.loop.Recover(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, domain.ErrShutdown) {
			e.logger.Warn("watchdog recovery failed", "err", err)
		}
		return nil
	})

	err := g.Wait()
	if s, ok := e.scheduler.(interface{ Stop() }); ok {
		s.Stop()
	}
	return err
}

// Play performs one player action and waits for its answer.
func (e *Engine) Play(ctx context.Context, player domain.ActorID, action domain.Action) (domain.ClientEvent, error) {
	return e.loop.Do(ctx, player, action)
}

// State returns every session sorted by player.
func (e *Engine) State(ctx context.Context) (domain.StateSnapshot, error) {
	return e.loop.State(ctx)
}

// Notifications drains the events pushed to player outside of a call,
// such as a watchdog defeat.
func (e *Engine) Notifications(player domain.ActorID) []domain.EventEnvelope {
	return e.hub.Drain(player)
}

// Handler serves the engine over HTTP, including /metrics.
func (e *Engine) Handler(version string) http.Handler {
	return httpadapter.NewHandler(e.loop, e.hub,
		httpadapter.WithSelf(e.loop.Orchestrator().Config().Self),
		httpadapter.WithLogger(e.logger),
		httpadapter.WithGatherer(e.registry),
		httpadapter.WithVersion(version),
	)
}

// Registry returns the registry holding the engine's metrics.
func (e *Engine) Registry() *prometheus.Registry {
	return e.registry
}

// Close releases the resources registered with WithCloser.
func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
