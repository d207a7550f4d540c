package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blogem/entrylog/config"
	"github.com/blogem/entrylog/controllers"
	"github.com/blogem/entrylog/database"
	"github.com/blogem/entrylog/logging"
	"github.com/blogem/entrylog/repositories"
	"github.com/blogem/entrylog/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the entry log HTTP API.

Example:
  entrylog serve
  entrylog serve --port 8080 --store mongodb://localhost:27017`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(settings)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := newLogger(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	repos := repositories.NewRepositories(conn)
	srvs := services.NewServices(repos)
	ctrl := controllers.NewControllers(srvs, log)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(ctrl, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "entrylog listening", "addr", srv.Addr, "store", conn.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// openStore opens the configured store. A malformed connection string is
// fatal; an unreachable store is only logged so the listener still starts
// and requests fail until it comes back.
func openStore(ctx context.Context, cfg *config.Config, log logging.Logger) (*database.Conn, error) {
	conn, err := database.Open(ctx, cfg.StoreURI, cfg.StoreDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := conn.Ping(pingCtx); err != nil {
		log.Error(ctx, "store unreachable", "kind", conn.Kind, "error", err)
		return conn, nil
	}
	if err := conn.Migrate(pingCtx); err != nil {
		log.Error(ctx, "store migration failed", "kind", conn.Kind, "error", err)
		return conn, nil
	}

	log.Info(ctx, "store connected", "kind", conn.Kind)
	return conn, nil
}
