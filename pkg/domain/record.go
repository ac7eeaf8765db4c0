package domain

import (
	"fmt"
	"slices"
	"strings"
)

// SessionRecord is the per-player state of the orchestrator.
//
// PendingCallerID and OutstandingRequestID are the correlation fields: the
// first names the suspended call to resume, the second names the outbound
// request whose reply is awaited.
type SessionRecord struct {
	// SessionID is the id of the call that started the current game.
	// Watchdog messages carry it and are ignored when it no longer matches.
	SessionID MessageID

	// PendingCallerID is the id of the call suspended on the service.
	PendingCallerID MessageID

	// OutstandingRequestID is the id the transport assigned to the request sent to the service.
	// Set if and only if Phase is AwaitingServiceInitReply or AwaitingServiceGuessReply.
	OutstandingRequestID MessageID

	// AttemptCount is the number of verified guesses in the current game.
	AttemptCount int

	Phase Phase
}

// NewSessionRecord creates the default record of a player seen for the first time.
func NewSessionRecord() *SessionRecord {
	return &SessionRecord{Phase: Initialized{}}
}

// Clone returns a deep copy of the record.
func (r *SessionRecord) Clone() *SessionRecord {
	if r == nil {
		return nil
	}
	next := *r
	if next.Phase == nil {
		next.Phase = Initialized{}
	}
	if rr, ok := next.Phase.(ReplyReceived); ok {
		next.Phase = ReplyReceived{Reply: cloneReply(rr.Reply)}
	}
	return &next
}

// CheckInvariants verifies the structural invariants of a record.
func (r *SessionRecord) CheckInvariants() error {
	if r.Phase == nil {
		return fmt.Errorf("session record has no phase")
	}
	if r.AttemptCount < 0 || r.AttemptCount > MaxAttempts {
		return fmt.Errorf("attempt count %d out of range [0,%d]", r.AttemptCount, MaxAttempts)
	}
	awaiting := IsAwaitingService(r.Phase)
	if awaiting && r.OutstandingRequestID.IsZero() {
		return fmt.Errorf("phase %s requires an outstanding request id", r.Phase.Name())
	}
	if !awaiting && !r.OutstandingRequestID.IsZero() {
		return fmt.Errorf("phase %s must not have an outstanding request id (got %s)", r.Phase.Name(), r.OutstandingRequestID)
	}
	if rr, ok := r.Phase.(ReplyReceived); ok && rr.Reply == nil {
		return fmt.Errorf("reply_received phase without a reply")
	}
	return nil
}

// SessionEntry pairs a player with a snapshot of their record.
type SessionEntry struct {
	Player ActorID        `json:"player"`
	Record *SessionRecord `json:"record"`
}

// SortEntries orders entries by player.
func SortEntries(entries []SessionEntry) {
	slices.SortFunc(entries, func(a, b SessionEntry) int {
		return strings.Compare(string(a.Player), string(b.Player))
	})
}

// StateSnapshot is the read-only projection returned by the state query.
type StateSnapshot struct {
	ServiceAddress ActorID        `json:"service_address"`
	Sessions       []SessionEntry `json:"sessions"`
}
