// migrate runs DB migrations from embedded SQL for the dialect of DATABASE_URL; go run ./cmd/migrate -direction up.
package main

import (
	"flag"
	"log/slog"
	"os"

	"innovation-portal/backend/internal/config"
	"innovation-portal/backend/internal/db/migrate"
	"innovation-portal/backend/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel() // checked by config.Validate
	logger := logging.SetDefault("migrate", "", cfg.LogFormat, logging.WithLevel(level))

	// Run treats "already at target version" as success.
	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		logger.Error("migrate", "direction", *direction, "error", err)
		os.Exit(1)
	}
	logger.Info("migrations complete", "direction", *direction, "dialect", cfg.DatabaseDialect())
}
