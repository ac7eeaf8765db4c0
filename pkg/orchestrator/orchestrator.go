package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/internal/runtime"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/observability"
	"github.com/aretw0/gamesession/pkg/ports"
	"github.com/aretw0/gamesession/pkg/session"
)

const (
	// DefaultSelf is the orchestrator's own address when none is configured.
	DefaultSelf domain.ActorID = "gamesession"

	// DefaultWatchdogDelay is the number of ticks before a game is checked for timeout.
	DefaultWatchdogDelay uint32 = 200
)

// Config is the init payload of the orchestrator.
type Config struct {
	// Self is the address watchdog messages must come from.
	Self domain.ActorID
	// ServiceAddress is the scoring service every request goes to.
	ServiceAddress domain.ActorID
	// WatchdogDelay is measured in scheduler ticks.
	WatchdogDelay uint32
}

// Deps are the collaborators the orchestrator drives.
type Deps struct {
	Sessions  *session.Manager
	Transport ports.Transport
	Notifier  ports.Notifier
	Scheduler ports.Scheduler
}

// Orchestrator correlates player calls with scoring service replies.
type Orchestrator struct {
	cfg       Config
	sessions  *session.Manager
	transport ports.Transport
	notifier  ports.Notifier
	scheduler ports.Scheduler
	pending   *pendingTable

	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	metrics *observability.Metrics
	now     func() time.Time
}

// New validates cfg and creates an orchestrator. An empty service address
// fails with domain.ErrInvalidServiceAddress.
func New(cfg Config, deps Deps, opts ...Option) (*Orchestrator, error) {
	if cfg.ServiceAddress.IsZero() {
		return nil, domain.ErrInvalidServiceAddress
	}
	if deps.Sessions == nil || deps.Transport == nil || deps.Notifier == nil || deps.Scheduler == nil {
		return nil, fmt.Errorf("orchestrator: sessions, transport, notifier and scheduler are required")
	}
	if cfg.Self.IsZero() {
		cfg.Self = DefaultSelf
	}
	if cfg.WatchdogDelay == 0 {
		cfg.WatchdogDelay = DefaultWatchdogDelay
	}

	o := &Orchestrator{
		cfg:       cfg,
		sessions:  deps.Sessions,
		transport: deps.Transport,
		notifier:  deps.Notifier,
		scheduler: deps.Scheduler,
		pending:   newPendingTable(),
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Suspended returns the number of calls waiting on the scoring service.
func (o *Orchestrator) Suspended() int {
	return o.pending.len()
}

// OnClientAction handles one inbound call and completes it, now or once the
// scoring service replies.
func (o *Orchestrator) OnClientAction(ctx context.Context, call *Call) {
	if call.ID.IsZero() {
		call.complete(nil, fmt.Errorf("%w: call has no message id", domain.ErrValidation))
		return
	}

	switch a := call.Action.(type) {
	case domain.QueryTimeoutStatus:
		if call.Source != o.cfg.Self {
			o.logger.Warn("rejected timeout check from outside", "source", call.Source, "player", a.Player)
			call.complete(nil, domain.ErrNotSelfAddressed)
			return
		}
		o.dispatch(ctx, a.Player, runtime.TimeoutTick{SessionID: a.SessionID}, nil, false)
		call.complete(nil, nil)
		return
	case nil:
		call.complete(nil, fmt.Errorf("%w: missing action", domain.ErrValidation))
		return
	}

	if call.Source.IsZero() {
		call.complete(nil, fmt.Errorf("%w: call has no source", domain.ErrValidation))
		return
	}
	o.dispatch(ctx, call.Source, runtime.ClientAction{Caller: call.ID, Action: call.Action}, call, true)
}

// OnServiceReply correlates a scoring service reply. Replies that match no
// outstanding request are dropped.
func (o *Orchestrator) OnServiceReply(ctx context.Context, replyTo domain.MessageID, reply domain.ServiceReply) {
	if reply == nil {
		o.logger.Warn("dropped empty service reply", "message_id", replyTo)
		return
	}
	o.dispatch(ctx, reply.Subject(), runtime.ServiceReplied{ReplyTo: replyTo, Reply: reply}, nil, false)
}

// OnStateQuery returns every session sorted by player.
func (o *Orchestrator) OnStateQuery(ctx context.Context) (domain.StateSnapshot, error) {
	entries, err := o.sessions.List(ctx)
	if err != nil {
		return domain.StateSnapshot{}, err
	}
	return domain.StateSnapshot{
		ServiceAddress: o.cfg.ServiceAddress,
		Sessions:       entries,
	}, nil
}

// Recover arms a fresh watchdog for every stored game that has not concluded.
// Calls parked before a restart are gone, so these games can only end by
// timeout or by the player acting again.
func (o *Orchestrator) Recover(ctx context.Context) (int, error) {
	entries, err := o.sessions.List(ctx)
	if err != nil {
		return 0, err
	}
	armed := 0
	for _, e := range entries {
		if e.Record.SessionID.IsZero() || domain.IsConcluded(e.Record.Phase) {
			continue
		}
		check := domain.QueryTimeoutStatus{Player: e.Player, SessionID: e.Record.SessionID}
		if err := o.scheduler.Schedule(ctx, o.cfg.WatchdogDelay, check); err != nil {
			return armed, fmt.Errorf("%w: re-arm watchdog for %s: %w", domain.ErrDelivery, e.Player, err)
		}
		armed++
	}
	if armed > 0 {
		o.logger.Info("re-armed watchdogs", "count", armed)
	}
	return armed, nil
}

// Shutdown completes every suspended call with domain.ErrShutdown.
func (o *Orchestrator) Shutdown() {
	for _, c := range o.pending.drain() {
		c.complete(nil, domain.ErrShutdown)
	}
	o.observeSuspended()
}

// dispatch applies ev to the player's record under the session lock.
// Sends happen before the record is saved so a failed send leaves it as it was.
func (o *Orchestrator) dispatch(ctx context.Context, player domain.ActorID, ev runtime.Event, call *Call, create bool) {
	var tr *runtime.Transition
	apply := func(rec *domain.SessionRecord) error {
		var err error
		tr, err = runtime.Apply(player, rec, ev)
		if err != nil {
			return err
		}
		if err := o.send(ctx, player, tr); err != nil {
			return err
		}
		*rec = *tr.Next
		return nil
	}

	var err error
	if create {
		_, err = o.sessions.UpdateOrCreate(ctx, player, apply)
	} else {
		_, err = o.sessions.Update(ctx, player, apply)
	}
	if err != nil {
		if errors.Is(err, domain.ErrStaleEvent) || (call == nil && errors.Is(err, domain.ErrSessionNotFound)) {
			o.stale(ctx, player, ev, err)
			return
		}
		if errors.Is(err, domain.ErrDelivery) {
			o.logger.Error("delivery failed", "player", player, "err", err)
		} else {
			o.logger.Debug("action rejected", "player", player, "err", err)
		}
		call.complete(nil, err)
		return
	}

	o.observe(ctx, player, ev, tr)
	o.perform(ctx, player, tr, call)
}

// send performs the outbound effects of tr and binds the request id.
func (o *Orchestrator) send(ctx context.Context, player domain.ActorID, tr *runtime.Transition) error {
	for _, e := range tr.Effects {
		switch e := e.(type) {
		case runtime.SendRequest:
			id, err := o.transport.Send(ctx, o.cfg.ServiceAddress, e.Request)
			if err != nil {
				return fmt.Errorf("%w: send to %s: %w", domain.ErrDelivery, o.cfg.ServiceAddress, err)
			}
			tr.Bind(id)
			o.logger.Debug("request sent", "player", player, "message_id", id)
		case runtime.ScheduleWatchdog:
			check := domain.QueryTimeoutStatus{Player: player, SessionID: e.SessionID}
			if err := o.scheduler.Schedule(ctx, o.cfg.WatchdogDelay, check); err != nil {
				return fmt.Errorf("%w: schedule watchdog: %w", domain.ErrDelivery, err)
			}
		}
	}
	return nil
}

// perform runs the effects that follow a committed transition.
func (o *Orchestrator) perform(ctx context.Context, player domain.ActorID, tr *runtime.Transition, call *Call) {
	var resume domain.MessageID
	for _, e := range tr.Effects {
		switch e := e.(type) {
		case runtime.Supersede:
			if c := o.pending.take(e.Caller); c != nil {
				c.complete(nil, domain.ErrSuperseded)
			}
		case runtime.Suspend:
			if call != nil && call.ID == e.Caller {
				o.pending.park(call)
			}
		case runtime.Reply:
			if call != nil && call.ID == e.Caller {
				call.complete(e.Event, nil)
			} else if c := o.pending.take(e.Caller); c != nil {
				c.complete(e.Event, nil)
			}
		case runtime.Notify:
			if err := o.notifier.Notify(ctx, e.Player, e.Event); err != nil {
				o.logger.Error("notify failed", "player", e.Player, "err", err)
			}
		case runtime.Resume:
			resume = e.Caller
		}
	}
	o.observeSuspended()

	if resume.IsZero() {
		return
	}
	c := o.pending.take(resume)
	if c == nil {
		o.logger.Info("reply cached without a suspended call", "player", player, "message_id", resume)
		return
	}
	o.dispatch(ctx, player, runtime.ClientAction{Caller: c.ID, Action: c.Action}, c, false)
}

func (o *Orchestrator) observe(ctx context.Context, player domain.ActorID, ev runtime.Event, tr *runtime.Transition) {
	base := domain.EventBase{Timestamp: o.now(), Player: player}

	if diff := domain.Diff(tr.Prev, tr.Next); diff != nil && o.hooks.OnTransition != nil {
		e := &domain.TransitionEvent{EventBase: base, From: tr.Prev.Phase.Name(), To: tr.Next.Phase.Name(), Diff: diff}
		e.Type = domain.EventTransition
		o.hooks.OnTransition(ctx, e)
	}

	concluded, ok := tr.Next.Phase.(domain.Concluded)
	if !ok || domain.IsConcluded(tr.Prev.Phase) {
		return
	}
	_, timedOut := ev.(runtime.TimeoutTick)
	if timedOut {
		o.logger.Info("game timed out", "player", player, "session_id", tr.Next.SessionID)
	}
	if o.hooks.OnConclude != nil {
		e := &domain.ConcludeEvent{EventBase: base, Outcome: concluded.Outcome, Attempts: tr.Next.AttemptCount, TimedOut: timedOut}
		e.Type = domain.EventConclude
		o.hooks.OnConclude(ctx, e)
	}
}

func (o *Orchestrator) stale(ctx context.Context, player domain.ActorID, ev runtime.Event, err error) {
	e := &domain.StaleEvent{EventBase: domain.EventBase{Timestamp: o.now(), Type: domain.EventStale, Player: player}}
	switch ev := ev.(type) {
	case runtime.ServiceReplied:
		e.Source, e.MessageID = "reply", ev.ReplyTo
	case runtime.TimeoutTick:
		e.Source, e.MessageID = "timeout", ev.SessionID
	default:
		e.Source = "action"
	}
	o.logger.Debug("stale event dropped", "player", player, "source", e.Source, "message_id", e.MessageID, "err", err)
	if o.hooks.OnStale != nil {
		o.hooks.OnStale(ctx, e)
	}
}

func (o *Orchestrator) observeSuspended() {
	if o.metrics != nil {
		o.metrics.SetSuspended(o.pending.len())
	}
}
