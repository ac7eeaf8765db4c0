package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/gamesession/internal/config"
	httpadapter "github.com/aretw0/gamesession/pkg/adapters/http"
	"github.com/aretw0/gamesession/pkg/wordle"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds the graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// Serve runs the orchestrator behind its HTTP API until ctx is done.
func Serve(ctx context.Context, cfg config.Config, version string, out io.Writer) error {
	logger := CreateLogger(cfg)
	engine, err := NewEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           engine.Handler(version),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(gctx) })
	g.Go(func() error {
		printSystemMessage(out, "gamesession %s listening on %s (store: %s)", version, srv.Addr, cfg.Store.Kind)
		return listen(srv)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv)
	})

	err = g.Wait()
	printSystemMessage(out, "gamesession stopped%s", stopReason(ctx))
	return handleExecutionError(err)
}

// ServeService hosts the reference scoring service. Replies are posted to
// the orchestrator at replyURL.
func ServeService(ctx context.Context, addr, replyURL string, cfg config.Config, out io.Writer) error {
	logger := CreateLogger(cfg)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpadapter.NewServiceHandler(wordle.NewService(), replyURL, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		printSystemMessage(out, "scoring service listening on %s, replying to %s", addr, replyURL)
		return listen(srv)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv)
	})
	err := g.Wait()
	printSystemMessage(out, "scoring service stopped%s", stopReason(ctx))
	return handleExecutionError(err)
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("graceful shutdown did not complete in %v: %w", ShutdownTimeout, err)
	}
	return nil
}
