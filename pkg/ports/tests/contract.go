package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SessionStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.SessionStore.
func SessionStoreContractTest(t *testing.T, store ports.SessionStore) {
	t.Helper()

	ctx := context.Background()
	player := domain.ActorID("contract-player-" + time.Now().Format("20060102150405"))

	t.Run("Save and Load", func(t *testing.T) {
		rec := &domain.SessionRecord{
			SessionID:            "m-1",
			PendingCallerID:      "m-1",
			OutstandingRequestID: "o-1",
			Phase:                domain.AwaitingServiceInitReply{},
		}
		require.NoError(t, store.Save(ctx, player, rec), "Save should not return error")

		loaded, err := store.Load(ctx, player)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec, loaded)
	})

	t.Run("Overwrite Keeps One Record", func(t *testing.T) {
		rec := &domain.SessionRecord{
			SessionID:    "m-1",
			AttemptCount: 2,
			Phase: domain.ReplyReceived{Reply: domain.GuessVerifiedReply{
				Player:         player,
				ExactPositions: []int{0, 4},
				PresentLetters: []int{2},
			}},
		}
		require.NoError(t, store.Save(ctx, player, rec))

		loaded, err := store.Load(ctx, player)
		require.NoError(t, err)
		assert.Equal(t, rec, loaded)

		players, err := store.List(ctx)
		require.NoError(t, err)
		count := 0
		for _, p := range players {
			if p == player {
				count++
			}
		}
		assert.Equal(t, 1, count, "a player must have at most one record")
	})

	t.Run("Loaded Record Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, player, &domain.SessionRecord{AttemptCount: 1, Phase: domain.AwaitingClientInput{}}))

		loaded, err := store.Load(ctx, player)
		require.NoError(t, err)
		loaded.AttemptCount = 4

		again, err := store.Load(ctx, player)
		require.NoError(t, err)
		assert.Equal(t, 1, again.AttemptCount, "mutating a loaded record must not change the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+player)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		p1 := domain.ActorID(fmt.Sprintf("%s-1", player))
		p2 := domain.ActorID(fmt.Sprintf("%s-2", player))
		require.NoError(t, store.Save(ctx, p1, domain.NewSessionRecord()))
		require.NoError(t, store.Save(ctx, p2, &domain.SessionRecord{Phase: domain.Concluded{Outcome: domain.Victory}}))

		players, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, players, p1)
		assert.Contains(t, players, p2)
	})
}
