package domain

// RecordDiff represents the changes between two session records.
// It is designed to be serialized to JSON for logs and change feeds.
type RecordDiff struct {
	Phase                *PhaseName `json:"phase,omitempty"`
	AttemptCount         *int       `json:"attempt_count,omitempty"`
	SessionID            *MessageID `json:"session_id,omitempty"`
	PendingCallerID      *MessageID `json:"pending_caller_id,omitempty"`
	OutstandingRequestID *MessageID `json:"outstanding_request_id,omitempty"`
}

// Diff calculates the difference between oldRec and newRec.
// If oldRec is nil, it returns a diff representing the entire newRec (first access).
// It returns nil when nothing changed.
func Diff(oldRec, newRec *SessionRecord) *RecordDiff {
	if newRec == nil {
		return nil
	}
	if oldRec == nil {
		oldRec = &SessionRecord{}
	}

	diff := &RecordDiff{}
	if phaseName(oldRec.Phase) != phaseName(newRec.Phase) {
		name := phaseName(newRec.Phase)
		diff.Phase = &name
	}
	if oldRec.AttemptCount != newRec.AttemptCount {
		diff.AttemptCount = &newRec.AttemptCount
	}
	if oldRec.SessionID != newRec.SessionID {
		diff.SessionID = &newRec.SessionID
	}
	if oldRec.PendingCallerID != newRec.PendingCallerID {
		diff.PendingCallerID = &newRec.PendingCallerID
	}
	if oldRec.OutstandingRequestID != newRec.OutstandingRequestID {
		diff.OutstandingRequestID = &newRec.OutstandingRequestID
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any changes.
func (d *RecordDiff) IsEmpty() bool {
	return d.Phase == nil &&
		d.AttemptCount == nil &&
		d.SessionID == nil &&
		d.PendingCallerID == nil &&
		d.OutstandingRequestID == nil
}

func phaseName(p Phase) PhaseName {
	if p == nil {
		return ""
	}
	return p.Name()
}
