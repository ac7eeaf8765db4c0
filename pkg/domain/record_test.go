package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRecord_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.SessionRecord
	}{
		{"initialized", *domain.NewSessionRecord()},
		{"awaiting init", domain.SessionRecord{SessionID: "m1", PendingCallerID: "m1", OutstandingRequestID: "o1", Phase: domain.AwaitingServiceInitReply{}}},
		{"cached guess reply", domain.SessionRecord{
			SessionID:       "m1",
			PendingCallerID: "m4",
			AttemptCount:    3,
			Phase: domain.ReplyReceived{Reply: domain.GuessVerifiedReply{
				Player:         "alice",
				ExactPositions: []int{0, 1},
				PresentLetters: []int{4},
			}},
		}},
		{"concluded", domain.SessionRecord{SessionID: "m1", AttemptCount: 5, Phase: domain.Concluded{Outcome: domain.Defeat}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.rec)
			require.NoError(t, err)

			var got domain.SessionRecord
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.rec, got)
		})
	}
}

func TestSessionRecord_UnmarshalRejectsUnknownPhase(t *testing.T) {
	var rec domain.SessionRecord
	err := json.Unmarshal([]byte(`{"phase":{"name":"sleeping"}}`), &rec)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"phase":{"name":"concluded","outcome":"draw"}}`), &rec)
	assert.Error(t, err)
}

func TestSessionRecord_CheckInvariants(t *testing.T) {
	assert.NoError(t, domain.NewSessionRecord().CheckInvariants())

	missing := &domain.SessionRecord{Phase: domain.AwaitingServiceGuessReply{}}
	assert.Error(t, missing.CheckInvariants(), "awaiting phase needs an outstanding id")

	leaked := &domain.SessionRecord{OutstandingRequestID: "o1", Phase: domain.Concluded{Outcome: domain.Defeat}}
	assert.Error(t, leaked.CheckInvariants(), "concluded phase must not keep an outstanding id")

	overflow := &domain.SessionRecord{AttemptCount: 6, Phase: domain.AwaitingClientInput{}}
	assert.Error(t, overflow.CheckInvariants())
}

func TestSessionRecord_CloneIsDeep(t *testing.T) {
	orig := &domain.SessionRecord{Phase: domain.ReplyReceived{Reply: domain.GuessVerifiedReply{
		Player:         "alice",
		ExactPositions: []int{0, 1},
		PresentLetters: []int{},
	}}}
	cp := orig.Clone()
	cp.Phase.(domain.ReplyReceived).Reply.(domain.GuessVerifiedReply).ExactPositions[0] = 4

	assert.Equal(t, []int{0, 1}, orig.Phase.(domain.ReplyReceived).Reply.(domain.GuessVerifiedReply).ExactPositions)
}

func TestValidateGuess(t *testing.T) {
	tests := []struct {
		word  string
		valid bool
	}{
		{"house", true},
		{"horse", true},
		{"APPLE", false},
		{"pear", false},
		{"houses", false},
		{"ho1se", false},
		{"héllo", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			err := domain.ValidateGuess(tt.word)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidGuess)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.False(t, errors.Is(err, domain.ErrProtocolViolation))
		})
	}
}

func TestGuessVerifiedReply_IsCorrectGuess(t *testing.T) {
	assert.True(t, domain.GuessVerifiedReply{ExactPositions: []int{0, 1, 2, 3, 4}}.IsCorrectGuess())
	assert.False(t, domain.GuessVerifiedReply{ExactPositions: []int{0, 1, 3, 4}}.IsCorrectGuess())
	assert.False(t, domain.GuessVerifiedReply{ExactPositions: []int{4, 3, 2, 1, 0}}.IsCorrectGuess())
}

func TestEnvelopes(t *testing.T) {
	reply, err := domain.EncodeReply(domain.GuessVerifiedReply{Player: "bob", ExactPositions: []int{1}, PresentLetters: []int{}}).Decode()
	require.NoError(t, err)
	assert.Equal(t, domain.GuessVerifiedReply{Player: "bob", ExactPositions: []int{1}, PresentLetters: []int{}}, reply)

	_, err = domain.ReplyEnvelope{Kind: "bogus", Player: "bob"}.Decode()
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = domain.ReplyEnvelope{Kind: domain.ReplyGameStarted}.Decode()
	assert.ErrorIs(t, err, domain.ErrValidation, "replies must name their player")

	ev, err := domain.EncodeEvent(domain.GameEnded{Outcome: domain.Victory}).Decode()
	require.NoError(t, err)
	assert.Equal(t, domain.GameEnded{Outcome: domain.Victory}, ev)

	req, err := domain.EncodeRequest(domain.VerifyGuessRequest{Player: "bob", Guess: "horse"}).Decode()
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyGuessRequest{Player: "bob", Guess: "horse"}, req)
}
