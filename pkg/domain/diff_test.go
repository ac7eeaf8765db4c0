package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	awaiting := PhaseAwaitingServiceInitReply
	concluded := PhaseConcluded
	zero := 0
	two := 2

	tests := []struct {
		name     string
		old      *SessionRecord
		new      *SessionRecord
		wantDiff *RecordDiff // nil means we expect no diff
	}{
		{
			name: "First Access (Old is Nil)",
			old:  nil,
			new:  NewSessionRecord(),
			wantDiff: &RecordDiff{
				Phase: &[]PhaseName{PhaseInitialized}[0],
			},
		},
		{
			name: "No Changes",
			old:  &SessionRecord{SessionID: "s1", AttemptCount: 2, Phase: AwaitingClientInput{}},
			new:  &SessionRecord{SessionID: "s1", AttemptCount: 2, Phase: AwaitingClientInput{}},
		},
		{
			name: "Game Start",
			old:  &SessionRecord{AttemptCount: 2, Phase: Concluded{Outcome: Defeat}},
			new: &SessionRecord{
				SessionID:            "m1",
				PendingCallerID:      "m1",
				OutstandingRequestID: "o1",
				Phase:                AwaitingServiceInitReply{},
			},
			wantDiff: &RecordDiff{
				Phase:                &awaiting,
				AttemptCount:         &zero,
				SessionID:            &[]MessageID{"m1"}[0],
				PendingCallerID:      &[]MessageID{"m1"}[0],
				OutstandingRequestID: &[]MessageID{"o1"}[0],
			},
		},
		{
			name: "Timeout Defeat",
			old:  &SessionRecord{SessionID: "m1", AttemptCount: 2, Phase: AwaitingClientInput{}},
			new:  &SessionRecord{SessionID: "m1", AttemptCount: 2, Phase: Concluded{Outcome: Defeat}},
			wantDiff: &RecordDiff{
				Phase: &concluded,
			},
		},
		{
			name: "Attempt Counted",
			old:  &SessionRecord{AttemptCount: 1, Phase: AwaitingClientInput{}},
			new:  &SessionRecord{AttemptCount: 2, Phase: AwaitingClientInput{}},
			wantDiff: &RecordDiff{
				AttemptCount: &two,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}
			if !equalPtr(got.Phase, tt.wantDiff.Phase) {
				t.Errorf("Diff().Phase = %v, want %v", got.Phase, tt.wantDiff.Phase)
			}
			if !equalPtr(got.AttemptCount, tt.wantDiff.AttemptCount) {
				t.Errorf("Diff().AttemptCount = %v, want %v", got.AttemptCount, tt.wantDiff.AttemptCount)
			}
			if !equalPtr(got.SessionID, tt.wantDiff.SessionID) {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !equalPtr(got.OutstandingRequestID, tt.wantDiff.OutstandingRequestID) {
				t.Errorf("Diff().OutstandingRequestID = %v, want %v", got.OutstandingRequestID, tt.wantDiff.OutstandingRequestID)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Unchanged Fields Omitted", func(t *testing.T) {
		r1 := &SessionRecord{SessionID: "s1", AttemptCount: 1, Phase: AwaitingClientInput{}}
		r2 := &SessionRecord{SessionID: "s1", AttemptCount: 2, Phase: AwaitingClientInput{}}
		diff := Diff(r1, r2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"session_id"`) {
			t.Errorf("JSON should not contain 'session_id' when unchanged, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"attempt_count":2`) {
			t.Errorf("JSON should contain the new attempt count, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
