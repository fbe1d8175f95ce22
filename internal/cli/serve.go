package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/statelift/pkg/adapters/http"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Serve runs the HTTP API on addr until ctx is cancelled.
func Serve(ctx context.Context, app *App, w io.Writer, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return serveListener(ctx, app, w, ln)
}

func serveListener(ctx context.Context, app *App, w io.Writer, ln net.Listener) error {
	handler := httpAdapter.NewHandler(app.Manager, app.Engine.Registry(),
		httpAdapter.WithMetrics(app.Metrics.Handler()),
		httpAdapter.WithLogger(app.Logger),
	)
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Cancels event streams on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(w, "Starting statelift server on %s\n", ln.Addr())
		fmt.Fprintf(w, "Store backend: %s\n", app.Config.Store.Backend)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		<-serverErrors
		fmt.Fprintln(w, "statelift server stopped gracefully")
		return nil
	}
}
