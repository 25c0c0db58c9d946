package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// Start serves the HTTP API until the context is canceled or a shutdown
// signal arrives, then drains in-flight requests.
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.Cfg.HTTP.Address,
		Handler: a.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.InfoContext(ctx, "HTTP server listening", attr.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-interrupt:
		a.logger.InfoContext(ctx, "Shutdown signal received")
	case <-ctx.Done():
		a.logger.InfoContext(ctx, "Application context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
