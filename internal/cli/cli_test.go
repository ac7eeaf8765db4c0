package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"

	"github.com/aretw0/gamesession"
	"github.com/aretw0/gamesession/internal/config"
	"github.com/aretw0/gamesession/internal/ids"
	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/pkg/adapters/timer"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/wordle"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedGame() []gamesession.Option {
	return []gamesession.Option{
		gamesession.WithScheduler(timer.NewManual()),
		gamesession.WithService(wordle.NewService(wordle.WithTarget("horse"))),
		gamesession.WithCallIDs(ids.NewSequence("call")),
		gamesession.WithMessageIDs(ids.NewSequence("msg")),
	}
}

func fileConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Kind: config.StoreFile, Path: t.TempDir()}
	return cfg
}

// playScript drives the engine through a fixed set of moves and stops it.
func playScript(t *testing.T, cfg config.Config) *gamesession.Engine {
	t.Helper()
	engine, err := NewEngine(cfg, logging.NewNop(), fixedGame()...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	moves := []struct {
		player domain.ActorID
		action domain.Action
	}{
		{"alice", domain.StartGame{}},
		{"alice", domain.SubmitGuess{Word: "house"}},
		{"bob", domain.StartGame{}},
		{"bob", domain.SubmitGuess{Word: "horse"}},
	}
	for _, m := range moves {
		_, err := engine.Play(ctx, m.player, m.action)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
		require.NoError(t, engine.Close())
	})
	return engine
}

func TestStateSnapshot_Golden(t *testing.T) {
	cfg := fileConfig(t)
	playScript(t, cfg)

	snap, err := LoadState(context.Background(), cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteState(&buf, snap))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "state_snapshot", buf.Bytes())
}

func TestFetchState_MatchesStore(t *testing.T) {
	cfg := fileConfig(t)
	engine := playScript(t, cfg)

	srv := httptest.NewServer(engine.Handler("test"))
	defer srv.Close()

	remote, err := FetchState(context.Background(), srv.URL)
	require.NoError(t, err)
	local, err := LoadState(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, local, remote)
}

func TestListSessions(t *testing.T) {
	cfg := fileConfig(t)
	playScript(t, cfg)
	snap, err := LoadState(context.Background(), cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ListSessions(&buf, snap.Sessions))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"PLAYER", "PHASE", "ATTEMPTS", "SESSION"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"alice", "awaiting_client_input", "1", "call-1"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"bob", "concluded", "(victory)", "1", "call-3"}, strings.Fields(lines[2]))

	buf.Reset()
	require.NoError(t, ListSessions(&buf, nil))
	assert.Equal(t, "No active sessions found.\n", buf.String())
}

func TestInspectSession(t *testing.T) {
	cfg := fileConfig(t)
	playScript(t, cfg)

	var buf bytes.Buffer
	require.NoError(t, InspectSession(context.Background(), cfg, "bob", &buf))
	assert.Contains(t, buf.String(), `"outcome": "victory"`)

	err := InspectSession(context.Background(), cfg, "nobody", &buf)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestPlay_Headless(t *testing.T) {
	var out bytes.Buffer
	err := Play(context.Background(), config.Default(), PlayOptions{
		Player:   "dave",
		Headless: true,
		Engine:   fixedGame(),
	}, strings.NewReader("start\nhorse\nquit\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "game started: guess the word\ngame over: victory\n", out.String())
}

func TestOpenStore(t *testing.T) {
	for _, kind := range []string{config.StoreMemory, config.StoreFile, config.StoreSQLite} {
		t.Run(kind, func(t *testing.T) {
			cfg := config.StoreConfig{Kind: kind, Path: t.TempDir()}
			if kind == config.StoreSQLite {
				cfg.Path += "/sessions.db"
			}
			b, err := OpenStore(cfg)
			require.NoError(t, err)
			defer b.Close()
			assert.Nil(t, b.Locker)
		})
	}

	_, err := OpenStore(config.StoreConfig{Kind: "etcd"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStopReason(t *testing.T) {
	assert.Empty(t, stopReason(context.Background()))

	sc := NewSignalContext(context.Background())
	defer sc.Cancel()
	assert.Empty(t, stopReason(sc))

	sc.mu.Lock()
	sc.sigVal = syscall.SIGTERM
	sc.mu.Unlock()
	assert.Equal(t, " (signal: terminated)", stopReason(sc))
}
