package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/justmcp/justmcp/internal/mcp"
)

// serveHTTP runs httpServer's handler until ctx is cancelled, then shuts it
// down gracefully.
func serveHTTP(ctx context.Context, addr string, httpServer *mcp.HTTPServer, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: httpServer.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
