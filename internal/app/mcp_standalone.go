package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sitebuilder/internal/config"
	"sitebuilder/internal/logger"
	mcpserver "sitebuilder/internal/mcp"
)

// ServeMCP runs the editor as a stdio MCP server until stdin closes or the
// process is interrupted.
func ServeMCP(cfg config.Config, log *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := New(cfg, log)
	if err := a.Startup(ctx); err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	srv := mcpserver.New(mcpserver.Deps{
		Emitter:  a.Emitter(),
		Session:  a.Session(),
		Registry: a.Registry(),
		Sites:    a.Sites(),
		Logger:   log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("interrupted, shutting down")
		return nil
	}
}
