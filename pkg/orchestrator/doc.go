/*
Package orchestrator implements the entry points of the game session
orchestrator and the single-writer loop that owns it.

An Orchestrator is not safe for concurrent use. Loop runs it on one goroutine
and is the way hosts should talk to it: Submit and Do for player actions,
Deliver for scoring service replies, Timeout for watchdog messages and State
for the read-only snapshot.

A call that needs the scoring service is parked in a pending table keyed by
its message id. When the matching reply arrives the call is resumed: the
same action runs again against the cached reply and the player gets the
answer. Every call is completed exactly once.
*/
package orchestrator
