package timer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/gamesession/pkg/adapters/timer"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	got []domain.QueryTimeoutStatus
}

func (r *recorder) Timeout(check domain.QueryTimeoutStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, check)
	return nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := timer.NewManual()
	rec := &recorder{}
	m.Attach(rec)
	ctx := context.Background()

	require.NoError(t, m.Schedule(ctx, 200, domain.QueryTimeoutStatus{Player: "late", SessionID: "s2"}))
	require.NoError(t, m.Schedule(ctx, 50, domain.QueryTimeoutStatus{Player: "early", SessionID: "s1"}))

	assert.Equal(t, 0, m.Advance(49))
	assert.Equal(t, 1, m.Advance(1))
	assert.Equal(t, 1, m.Pending())

	assert.Equal(t, 1, m.Advance(500))
	assert.Equal(t, []domain.QueryTimeoutStatus{
		{Player: "early", SessionID: "s1"},
		{Player: "late", SessionID: "s2"},
	}, rec.got)
	assert.Equal(t, uint64(550), m.Now())
}

func TestManual_DelayIsRelativeToScheduleTime(t *testing.T) {
	m := timer.NewManual()
	rec := &recorder{}
	m.Attach(rec)

	m.Advance(100)
	require.NoError(t, m.Schedule(context.Background(), 200, domain.QueryTimeoutStatus{Player: "p"}))
	assert.Equal(t, 0, m.Advance(199))
	assert.Equal(t, 1, m.Advance(1))
}

func TestWall_FiresAndStops(t *testing.T) {
	w := timer.NewWall(time.Millisecond)
	rec := &recorder{}
	w.Attach(rec)
	ctx := context.Background()

	require.NoError(t, w.Schedule(ctx, 2, domain.QueryTimeoutStatus{Player: "fast"}))
	assert.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, w.Schedule(ctx, 10_000, domain.QueryTimeoutStatus{Player: "never"}))
	w.Stop()
	assert.ErrorIs(t, w.Schedule(ctx, 1, domain.QueryTimeoutStatus{Player: "after"}), domain.ErrShutdown)
	assert.Equal(t, 1, rec.len())
}
