// seed creates or promotes an admin account. Idempotent: an existing admin is left unchanged.
// Email and password come from -email/-password or SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"innovation-portal/backend/internal/config"
	identityservice "innovation-portal/backend/internal/identity/service"
	"innovation-portal/backend/internal/logging"
	"innovation-portal/backend/internal/security"
	"innovation-portal/backend/internal/storage"
)

func main() {
	email := flag.String("email", os.Getenv("SEED_ADMIN_EMAIL"), "Admin email (default $SEED_ADMIN_EMAIL)")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "Admin password, used only when the account is created (default $SEED_ADMIN_PASSWORD)")
	flag.Parse()

	if err := run(*email, *password); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(email, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel() // checked by config.Validate
	logger := logging.SetDefault("seed", "", cfg.LogFormat, logging.WithLevel(level))

	if email == "" {
		return errors.New("admin email is required; pass -email or set SEED_ADMIN_EMAIL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stores, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer stores.Close()

	auth, err := identityservice.NewAuthService(stores.Accounts, stores.RefreshTokens,
		security.NewHasher(cfg.BcryptCost),
		security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.AccessTTL(), cfg.RefreshTTL()),
	)
	if err != nil {
		return err
	}

	outcome, acct, err := seedAdmin(ctx, stores.Accounts, auth, email, password, time.Now().UTC())
	if err != nil {
		return err
	}
	logger.Info("seed completed", "outcome", outcome, "account_id", acct.ID, "email", acct.Email)
	return nil
}
