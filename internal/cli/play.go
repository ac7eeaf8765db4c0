package cli

import (
	"context"
	"io"

	"github.com/aretw0/gamesession"
	"github.com/aretw0/gamesession/internal/config"
	"github.com/aretw0/gamesession/pkg/domain"
)

// PlayOptions configures an interactive game.
type PlayOptions struct {
	Player   domain.ActorID
	Headless bool
	// Extra engine options, such as a fixed scoring service for tests.
	Engine []gamesession.Option
}

// Play runs a console game against an in-process scoring service.
func Play(ctx context.Context, cfg config.Config, opts PlayOptions, in io.Reader, out io.Writer) error {
	cfg.ServiceURL = ""
	engine, err := NewEngine(cfg, CreateLogger(cfg), opts.Engine...)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	r := gamesession.NewRunner(in, out)
	r.Headless = opts.Headless
	runErr := r.Run(ctx, engine, opts.Player)

	cancel()
	if err := <-done; err != nil && runErr == nil {
		runErr = err
	}
	return handleExecutionError(runErr)
}
