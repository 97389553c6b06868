package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/storyline/pkg/adapters/http"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server and its sessions.
const shutdownTimeout = 5 * time.Second

// RunServe serves sessions over HTTP on ln until ctx is done.
func RunServe(ctx context.Context, app *App, ln net.Listener) error {
	transport := httpadapter.NewTransport(nil)
	engine := app.NewEngine(transport)
	server := httpadapter.NewServer(engine, transport, app.Sessions,
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithGatherer(app.Registry),
	)

	srv := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Storyline server listening", "address", ln.Addr().String(), "story", app.Story.Title())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("graceful shutdown did not complete: %w", err))
		errs = append(errs, srv.Close())
	}
	if err := server.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("sessions did not stop: %w", err))
	}
	return errors.Join(errs...)
}
