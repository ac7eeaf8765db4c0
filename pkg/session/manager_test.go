package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/gamesession/pkg/adapters/memory"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/ports"
	"github.com/aretw0/gamesession/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke lost updates if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, player domain.ActorID, rec *domain.SessionRecord) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, player, rec)
}

func (s SlowStore) Load(ctx context.Context, player domain.ActorID) (*domain.SessionRecord, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, player)
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	manager := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()
	player := domain.ActorID("race-test")

	var wg sync.WaitGroup
	for i := 0; i < domain.MaxAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.UpdateOrCreate(ctx, player, func(rec *domain.SessionRecord) error {
				rec.AttemptCount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := manager.Get(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxAttempts, rec.AttemptCount, "no increment may be lost")
}

func TestManager_GetOrCreateDoesNotPersist(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()

	rec, err := manager.GetOrCreate(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, domain.NewSessionRecord(), rec)

	_, err = manager.Get(ctx, "newcomer")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_UpdateRequiresExistingRecord(t *testing.T) {
	manager := session.NewManager(memory.NewStore())

	_, err := manager.Update(context.Background(), "ghost", func(*domain.SessionRecord) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_FailedUpdateLeavesRecord(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, manager.Save(ctx, "alice", &domain.SessionRecord{AttemptCount: 2, Phase: domain.AwaitingClientInput{}}))

	boom := errors.New("boom")
	_, err := manager.Update(ctx, "alice", func(rec *domain.SessionRecord) error {
		rec.AttemptCount = 5
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := manager.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.AttemptCount)
}

func TestManager_ListSorted(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	for _, p := range []domain.ActorID{"zoe", "adam", "mia"} {
		require.NoError(t, manager.Save(ctx, p, domain.NewSessionRecord()))
	}

	entries, err := manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.ActorID("adam"), entries[0].Player)
	assert.Equal(t, domain.ActorID("mia"), entries[1].Player)
	assert.Equal(t, domain.ActorID("zoe"), entries[2].Player)
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	ttl  time.Duration
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	l.ttl = ttl
	return func(context.Context) error { return errors.New("already expired") }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(),
		session.WithLocker(locker),
		session.WithLockTTL(5*time.Second),
	)

	// A failing unlock is only logged.
	require.NoError(t, manager.Save(context.Background(), "bob", domain.NewSessionRecord()))
	assert.Equal(t, []string{"bob"}, locker.keys)
	assert.Equal(t, 5*time.Second, locker.ttl)
}
