/*
Package gamesession runs word-guessing games on behalf of players while the
scoring itself is done by a separate service.

The orchestrator processes one event at a time. A player action that needs
the scoring service suspends the caller until the service replies; a
watchdog message, scheduled when each game starts, concludes games whose
service or player went silent.

# Usage

	engine, err := gamesession.New("wordle",
		gamesession.WithStore(file.New("./sessions")),
	)
	if err != nil {
		log.Fatal(err)
	}
	go engine.Run(ctx)

	ev, err := engine.Play(ctx, "alice", domain.StartGame{})

Engine.Handler exposes the same operations over HTTP; see pkg/adapters/http.
*/
package gamesession
