package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves HTTP in the background. The returned channel is closed once a
// termination signal arrives.
func (a *App) Start() <-chan struct{} {
	terminate := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

		got := <-sig
		slog.Info("termination signal received", "signal", got.String())

		close(terminate)
	}()

	return terminate
}

// Stop drains HTTP first so no new job can start, then waits for submissions
// already running before the remaining resources are closed.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if n := a.goroutine.InFlight(); n > 0 {
		slog.InfoContext(ctx, "waiting for background jobs", "in_flight", n)
	}
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background jobs returned errors", "error", err)
	}

	// submissions are done; their root context can go
	if a.cancel != nil {
		a.cancel()
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
