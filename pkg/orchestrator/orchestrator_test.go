package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/gamesession/internal/ids"
	"github.com/aretw0/gamesession/pkg/adapters/loopback"
	"github.com/aretw0/gamesession/pkg/adapters/memory"
	"github.com/aretw0/gamesession/pkg/adapters/timer"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/orchestrator"
	"github.com/aretw0/gamesession/pkg/ports"
	"github.com/aretw0/gamesession/pkg/session"
	"github.com/aretw0/gamesession/pkg/wordle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	self       = domain.ActorID("orchestrator")
	wordleAddr = domain.ActorID("wordle")
	alice      = domain.ActorID("alice")
)

// harness drives an Orchestrator synchronously on the test goroutine.
type harness struct {
	t         *testing.T
	ctx       context.Context
	orch      *orchestrator.Orchestrator
	store     *memory.Store
	transport *loopback.Transport
	timer     *timer.Manual
	inbox     *loopback.Inbox
	calls     *ids.Sequence
	hooks     []string
}

// direct feeds replies and watchdog messages straight into the orchestrator.
type direct struct{ h *harness }

func (d direct) Deliver(replyTo domain.MessageID, reply domain.ServiceReply) error {
	d.h.orch.OnServiceReply(d.h.ctx, replyTo, reply)
	return nil
}

func (d direct) Timeout(check domain.QueryTimeoutStatus) error {
	d.h.orch.OnClientAction(d.h.ctx, &orchestrator.Call{ID: d.h.calls.Next(), Source: self, Action: check})
	return nil
}

func newHarness(t *testing.T, svc ports.Service, opts ...orchestrator.Option) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		ctx:       context.Background(),
		store:     memory.NewStore(),
		transport: loopback.New(svc, loopback.WithIDGenerator(ids.NewSequence("out"))),
		timer:     timer.NewManual(),
		inbox:     loopback.NewInbox(),
		calls:     ids.NewSequence("call"),
	}
	hooks := domain.LifecycleHooks{
		OnStale: func(_ context.Context, e *domain.StaleEvent) { h.hooks = append(h.hooks, "stale:"+e.Source) },
		OnConclude: func(_ context.Context, e *domain.ConcludeEvent) {
			h.hooks = append(h.hooks, "conclude:"+string(e.Outcome)+map[bool]string{true: ":timeout"}[e.TimedOut])
		},
	}
	orch, err := orchestrator.New(
		orchestrator.Config{Self: self, ServiceAddress: wordleAddr},
		orchestrator.Deps{
			Sessions:  session.NewManager(h.store),
			Transport: h.transport,
			Notifier:  h.inbox,
			Scheduler: h.timer,
		},
		append([]orchestrator.Option{orchestrator.WithHooks(hooks)}, opts...)...,
	)
	require.NoError(t, err)
	h.orch = orch
	h.transport.Attach(direct{h})
	h.timer.Attach(direct{h})
	return h
}

type answer struct {
	ev    domain.ClientEvent
	err   error
	count int
}

func (h *harness) submit(player domain.ActorID, action domain.Action) *answer {
	a := &answer{}
	h.orch.OnClientAction(h.ctx, &orchestrator.Call{
		ID:     h.calls.Next(),
		Source: player,
		Action: action,
		Done: func(ev domain.ClientEvent, err error) {
			a.ev, a.err = ev, err
			a.count++
		},
	})
	return a
}

func (h *harness) record(player domain.ActorID) *domain.SessionRecord {
	h.t.Helper()
	rec, err := h.store.Load(h.ctx, player)
	require.NoError(h.t, err)
	require.NoError(h.t, rec.CheckInvariants())
	return rec
}

func (h *harness) start(player domain.ActorID) {
	h.t.Helper()
	a := h.submit(player, domain.StartGame{})
	require.Zero(h.t, a.count, "start must suspend until the service replies")
	h.transport.Flush(h.ctx)
	require.Equal(h.t, 1, a.count)
	require.NoError(h.t, a.err)
	require.Equal(h.t, domain.GameStarted{}, a.ev)
}

func (h *harness) guess(player domain.ActorID, word string) *answer {
	h.t.Helper()
	a := h.submit(player, domain.SubmitGuess{Word: word})
	h.transport.Flush(h.ctx)
	return a
}

func TestNew_RequiresServiceAddress(t *testing.T) {
	_, err := orchestrator.New(orchestrator.Config{}, orchestrator.Deps{})
	assert.ErrorIs(t, err, domain.ErrInvalidServiceAddress)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNew_Defaults(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	cfg := h.orch.Config()
	assert.Equal(t, orchestrator.DefaultWatchdogDelay, cfg.WatchdogDelay)
	assert.Equal(t, self, cfg.Self)
}

func TestScenarioA_Victory(t *testing.T) {
	h := newHarness(t, wordle.NewService(wordle.WithTarget("horse")))
	h.start(alice)

	a := h.guess(alice, "house")
	require.NoError(t, a.err)
	assert.Equal(t, domain.GuessOutcome{ExactPositions: []int{0, 1, 3, 4}, PresentLetters: []int{}}, a.ev)

	a = h.guess(alice, "horse")
	require.NoError(t, a.err)
	assert.Equal(t, domain.GameEnded{Outcome: domain.Victory}, a.ev)
	assert.Equal(t, 1, a.count)

	rec := h.record(alice)
	assert.Equal(t, domain.Concluded{Outcome: domain.Victory}, rec.Phase)
	assert.Equal(t, 2, rec.AttemptCount)
	assert.Equal(t, []string{"conclude:victory"}, h.hooks)
	assert.Zero(t, h.orch.Suspended())
}

func TestScenarioB_DefeatByExhaustion(t *testing.T) {
	h := newHarness(t, wordle.NewService(wordle.WithTarget("horse")))
	h.start(alice)

	var a *answer
	for i := 0; i < domain.MaxAttempts; i++ {
		a = h.guess(alice, "plumb")
		require.NoError(t, a.err)
	}
	assert.Equal(t, domain.GameEnded{Outcome: domain.Defeat}, a.ev)
	assert.Equal(t, domain.MaxAttempts, h.record(alice).AttemptCount)

	a = h.submit(alice, domain.SubmitGuess{Word: "horse"})
	assert.ErrorIs(t, a.err, domain.ErrNoActiveGame)
}

func TestScenarioC_SecondStartRejected(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	h.start(alice)
	before := h.record(alice)

	a := h.submit(alice, domain.StartGame{})
	assert.ErrorIs(t, a.err, domain.ErrProtocolViolation)
	assert.Equal(t, 1, a.count)
	assert.Equal(t, before, h.record(alice))
	assert.Zero(t, h.transport.Pending())
}

func TestStartGame_RetrySupersedesPendingCall(t *testing.T) {
	h := newHarness(t, wordle.NewService())

	first := h.submit(alice, domain.StartGame{})
	second := h.submit(alice, domain.StartGame{})
	assert.ErrorIs(t, first.err, domain.ErrSuperseded)
	assert.Equal(t, 2, h.timer.Pending(), "each start arms its own watchdog")

	h.transport.Flush(h.ctx)
	require.NoError(t, second.err)
	assert.Equal(t, domain.GameStarted{}, second.ev)
	assert.Equal(t, 1, first.count)
	assert.Equal(t, []string{"stale:reply"}, h.hooks, "reply to the first send is stale")

	// The first game's watchdog no longer matches; the second one does.
	h.timer.Advance(orchestrator.DefaultWatchdogDelay)
	assert.Equal(t, domain.Concluded{Outcome: domain.Defeat}, h.record(alice).Phase)
	assert.Len(t, h.inbox.Drain(alice), 1)
}

func TestScenarioD_InvalidGuessSendsNothing(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	h.start(alice)
	before := h.record(alice)

	for _, word := range []string{"APPLE", "pear"} {
		a := h.submit(alice, domain.SubmitGuess{Word: word})
		assert.ErrorIs(t, a.err, domain.ErrValidation, word)
		assert.Zero(t, h.transport.Pending(), word)
	}
	assert.Equal(t, before, h.record(alice))
}

func TestScenarioE_TimeoutThenLateReply(t *testing.T) {
	h := newHarness(t, wordle.NewService(wordle.WithTarget("horse")))
	h.start(alice)

	// The guess is sent but the reply is held back past the watchdog.
	a := h.submit(alice, domain.SubmitGuess{Word: "horse"})
	require.Equal(t, 1, h.transport.Pending())

	h.timer.Advance(orchestrator.DefaultWatchdogDelay)
	assert.Equal(t, domain.GameEnded{Outcome: domain.Defeat}, a.ev)
	assert.Equal(t, []domain.ClientEvent{domain.GameEnded{Outcome: domain.Defeat}}, h.inbox.Drain(alice))

	h.transport.Flush(h.ctx)
	rec := h.record(alice)
	assert.Equal(t, domain.Concluded{Outcome: domain.Defeat}, rec.Phase)
	assert.Zero(t, rec.AttemptCount)
	assert.Equal(t, 1, a.count)
	assert.Equal(t, []string{"conclude:defeat:timeout", "stale:reply"}, h.hooks)
}

func TestTimeout_AfterVictoryIsNoOp(t *testing.T) {
	h := newHarness(t, wordle.NewService(wordle.WithTarget("horse")))
	h.start(alice)
	h.guess(alice, "horse")

	h.timer.Advance(orchestrator.DefaultWatchdogDelay)
	assert.Equal(t, domain.Concluded{Outcome: domain.Victory}, h.record(alice).Phase)
	assert.Empty(t, h.inbox.Drain(alice))
	assert.Equal(t, []string{"conclude:victory", "stale:timeout"}, h.hooks)
}

func TestTimeoutCheck_OnlyFromSelf(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	h.start(alice)

	a := h.submit(alice, domain.QueryTimeoutStatus{Player: alice, SessionID: h.record(alice).SessionID})
	assert.ErrorIs(t, a.err, domain.ErrNotSelfAddressed)
	assert.IsType(t, domain.AwaitingClientInput{}, h.record(alice).Phase)
}

func TestTimeoutCheck_UnknownPlayerIsStale(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	h.orch.OnClientAction(h.ctx, &orchestrator.Call{ID: "x", Source: self, Action: domain.QueryTimeoutStatus{Player: "ghost", SessionID: "s"}})

	_, err := h.store.Load(h.ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, []string{"stale:timeout"}, h.hooks)
}

type failingTransport struct {
	mock.Mock
}

func (m *failingTransport) Send(ctx context.Context, addr domain.ActorID, req domain.ServiceRequest) (domain.MessageID, error) {
	args := m.Called(ctx, addr, req)
	return domain.MessageID(args.String(0)), args.Error(1)
}

func TestDeliveryFailureLeavesRecord(t *testing.T) {
	transport := &failingTransport{}
	transport.On("Send", mock.Anything, wordleAddr, domain.StartGameRequest{Player: alice}).
		Return("", errors.New("connection refused")).Once()

	store := memory.NewStore()
	sched := timer.NewManual()
	orch, err := orchestrator.New(
		orchestrator.Config{Self: self, ServiceAddress: wordleAddr},
		orchestrator.Deps{Sessions: session.NewManager(store), Transport: transport, Notifier: loopback.NewInbox(), Scheduler: sched},
	)
	require.NoError(t, err)

	var got error
	orch.OnClientAction(context.Background(), &orchestrator.Call{
		ID: "call-1", Source: alice, Action: domain.StartGame{},
		Done: func(_ domain.ClientEvent, err error) { got = err },
	})

	assert.ErrorIs(t, got, domain.ErrDelivery)
	assert.Zero(t, sched.Pending(), "no watchdog without a sent request")
	_, err = store.Load(context.Background(), alice)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	transport.AssertExpectations(t)
}

func TestSilentServiceTimesOutSuspendedCall(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	h.transport.Drop(func(domain.ServiceRequest) bool { return true })

	a := h.submit(alice, domain.StartGame{})
	h.transport.Flush(h.ctx)
	assert.Zero(t, a.count)
	assert.Equal(t, 1, h.orch.Suspended())

	h.timer.Advance(orchestrator.DefaultWatchdogDelay)
	assert.Equal(t, domain.GameEnded{Outcome: domain.Defeat}, a.ev)
	assert.Zero(t, h.orch.Suspended())
}

func TestShutdownCompletesSuspendedCalls(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	a := h.submit(alice, domain.StartGame{})

	h.orch.Shutdown()
	assert.ErrorIs(t, a.err, domain.ErrShutdown)
	h.orch.Shutdown()
	assert.Equal(t, 1, a.count)
}

func TestRecoverRearmsWatchdogs(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	ctx := h.ctx
	require.NoError(t, h.store.Save(ctx, "bob", &domain.SessionRecord{
		SessionID: "old-1", PendingCallerID: "old-2", OutstandingRequestID: "out-9",
		AttemptCount: 2, Phase: domain.AwaitingServiceGuessReply{},
	}))
	require.NoError(t, h.store.Save(ctx, "carol", &domain.SessionRecord{
		SessionID: "old-3", AttemptCount: 1, Phase: domain.Concluded{Outcome: domain.Victory},
	}))
	require.NoError(t, h.store.Save(ctx, "dave", domain.NewSessionRecord()))

	n, err := h.orch.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	h.timer.Advance(orchestrator.DefaultWatchdogDelay)
	assert.Equal(t, domain.Concluded{Outcome: domain.Defeat}, h.record("bob").Phase)
	assert.Len(t, h.inbox.Drain("bob"), 1)
}

func TestStateQuery(t *testing.T) {
	h := newHarness(t, wordle.NewService())
	h.start("zoe")
	h.start(alice)

	snap, err := h.orch.OnStateQuery(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, wordleAddr, snap.ServiceAddress)
	require.Len(t, snap.Sessions, 2)
	assert.Equal(t, alice, snap.Sessions[0].Player)
	assert.Equal(t, domain.ActorID("zoe"), snap.Sessions[1].Player)
}
