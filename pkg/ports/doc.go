/*
Package ports defines the driven ports (interfaces) of the game session orchestrator.

These interfaces decouple the orchestration core from the host it runs in, allowing
the same state machine to work with various storage backends, transports, and timers.

# Key Interfaces

  - SessionStore: Persists and loads per-player SessionRecords.
  - Transport: Delivers requests to the scoring service and assigns their message ids.
  - Notifier: Pushes unsolicited events (watchdog defeats) to players.
  - Scheduler: Delivers delayed self-addressed watchdog messages.
  - Service: The scoring service contract, used by in-process transports.
  - DistributedLocker: Provides distributed locking for stores shared by several replicas.
*/
package ports
