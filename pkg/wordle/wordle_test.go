package wordle_test

import (
	"context"
	"testing"

	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/wordle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		target, guess  string
		exact, present []int
	}{
		{"horse", "house", []int{0, 1, 3, 4}, []int{}},
		{"horse", "horse", []int{0, 1, 2, 3, 4}, []int{}},
		{"crane", "nacre", []int{4}, []int{0, 1, 2, 3}},
		{"ghost", "plumb", []int{}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.target+"/"+tt.guess, func(t *testing.T) {
			exact, present := wordle.Score(tt.target, tt.guess)
			assert.Equal(t, tt.exact, exact)
			assert.Equal(t, tt.present, present)
		})
	}
}

func TestService_Game(t *testing.T) {
	svc := wordle.NewService(wordle.WithTarget("horse"))
	ctx := context.Background()

	reply, err := svc.Handle(ctx, domain.StartGameRequest{Player: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.GameStartedReply{Player: "alice"}, reply)

	reply, err = svc.Handle(ctx, domain.VerifyGuessRequest{Player: "alice", Guess: "horse"})
	require.NoError(t, err)
	verified, ok := reply.(domain.GuessVerifiedReply)
	require.True(t, ok)
	assert.True(t, verified.IsCorrectGuess())
}

func TestService_GuessWithoutGame(t *testing.T) {
	svc := wordle.NewService()
	_, err := svc.Handle(context.Background(), domain.VerifyGuessRequest{Player: "bob", Guess: "crane"})
	assert.ErrorIs(t, err, wordle.ErrNoGame)
}

func TestService_DefaultBank(t *testing.T) {
	svc := wordle.NewService()
	_, err := svc.Handle(context.Background(), domain.StartGameRequest{Player: "carol"})
	require.NoError(t, err)

	target, ok := svc.Target("carol")
	require.True(t, ok)
	assert.Contains(t, wordle.DefaultWords, target)
}

func TestService_RejectsBadTarget(t *testing.T) {
	svc := wordle.NewService(wordle.WithTarget("toolong"))
	_, err := svc.Handle(context.Background(), domain.StartGameRequest{Player: "dave"})
	assert.Error(t, err)
}
