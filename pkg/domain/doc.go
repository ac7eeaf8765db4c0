/*
Package domain contains the core domain models of the game session orchestrator.

It defines the per-player session record, the phase sum type that drives the
orchestration state machine, and the messages exchanged with players and with
the external scoring service. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - SessionRecord: Per-player state (phase, attempt count, correlation ids).
  - Phase: Sealed sum type (Initialized, AwaitingClientInput, AwaitingServiceInitReply,
    AwaitingServiceGuessReply, ReplyReceived, Concluded).
  - Action: What a player (or the orchestrator itself) asks for.
  - ClientEvent: What a player receives back.
  - ServiceRequest / ServiceReply: The opaque contract with the scoring service.
*/
package domain
