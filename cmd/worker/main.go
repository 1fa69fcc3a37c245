// Worker deletes expired and revoked refresh tokens every REFRESH_PURGE_INTERVAL.
// Uses the same DATABASE_URL as the server; GRPC_ADDR is validated but unused.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innovation-portal/backend/internal/config"
	"innovation-portal/backend/internal/logging"
	"innovation-portal/backend/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel() // checked by config.Validate
	logger := logging.SetDefault("worker", "", cfg.LogFormat, logging.WithLevel(level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer stores.Close()

	logger.Info("worker: purging refresh tokens",
		"interval", cfg.RefreshPurgeInterval.String(),
		"dialect", stores.Dialect,
	)
	p := &purger{
		store:    stores.RefreshTokens,
		interval: cfg.RefreshPurgeInterval,
		now:      time.Now,
		logger:   logger,
	}
	p.run(ctx)
	logger.Info("worker: stopped")
	return nil
}
