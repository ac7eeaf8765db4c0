// Package runtime holds the session state machine.
//
// Apply is pure: it takes a record and an event and returns the next record
// plus the effects the caller must perform. It never sends, waits or stores.
// The orchestrator performs effects in order and commits the record only
// after every send succeeded.
package runtime
