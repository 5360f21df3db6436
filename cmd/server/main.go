package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"syncvault/internal/app"
	"syncvault/internal/platform/config"
	"syncvault/internal/platform/httpserver"
	"syncvault/internal/platform/logger"
)

// main loads configuration, wires the application and serves HTTP until
// interrupted. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server.Addr, application.Router, cfg.Server.ReadHeaderTimeout.Duration)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting syncvault",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Backend,
			"escrow", cfg.Escrow.Variant,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()

		log.Info("shutting down")
		return errors.Join(srv.Shutdown(shutdownCtx), application.Close(shutdownCtx))
	})
	return g.Wait()
}
