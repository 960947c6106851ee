package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/polyglot/internal/config"
	"github.com/JonMunkholm/polyglot/internal/core"
	"github.com/JonMunkholm/polyglot/internal/logging"
	"github.com/JonMunkholm/polyglot/internal/store"
	"github.com/JonMunkholm/polyglot/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database", "driver", cfg.Database.Driver)

	service, err := core.NewService(db,
		core.WithModeration(cfg.Moderation),
		core.WithImport(cfg.Import),
	)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server, err := web.NewServer(service, cfg, db.Healthcheck)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := serve(ctx, server, service, cfg.Server.ShutdownTimeout); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// httpServer is the part of *web.Server that serve drives.
type httpServer interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// importWaiter is the part of *core.Service that shutdown drains.
type importWaiter interface {
	ActiveImports() int
	WaitForImports(ctx context.Context) error
}

// serve runs srv until ctx is done, then drains imports and shuts the server
// down within timeout. ListenAndServe returns as soon as Shutdown starts, so
// serve only returns once Shutdown has finished and in-flight requests are
// done with the database.
func serve(ctx context.Context, srv httpServer, imports importWaiter, timeout time.Duration) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if n := imports.ActiveImports(); n > 0 {
			slog.Info("waiting for imports to complete", "active", n)
			if err := imports.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}
