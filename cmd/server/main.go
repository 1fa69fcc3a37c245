package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innovation-portal/backend/internal/config"
	"innovation-portal/backend/internal/db/migrate"
	healthhandler "innovation-portal/backend/internal/health/handler"
	identityservice "innovation-portal/backend/internal/identity/service"
	"innovation-portal/backend/internal/logging"
	"innovation-portal/backend/internal/platform/rbac"
	"innovation-portal/backend/internal/policy/engine"
	"innovation-portal/backend/internal/security"
	"innovation-portal/backend/internal/server"
	"innovation-portal/backend/internal/storage"
	telemetryotel "innovation-portal/backend/internal/telemetry/otel"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel() // checked by config.Validate

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Settings{
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	var logOpts []logging.Option
	logOpts = append(logOpts, logging.WithLevel(level))
	if providers.Exporting {
		logOpts = append(logOpts, logging.WithHandler(providers.SlogHandler(cfg.ServiceName)))
	}
	logger := logging.SetDefault(cfg.ServiceName, version, cfg.LogFormat, logOpts...)

	if cfg.AutoMigrate {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			return err
		}
		logger.Info("migrations applied", "dialect", cfg.DatabaseDialect())
	}

	stores, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer stores.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.AccessTTL(), cfg.RefreshTTL())
	auth, err := identityservice.NewAuthService(stores.Accounts, stores.RefreshTokens, hasher, tokens,
		identityservice.WithMeter(providers.MeterProvider.Meter("innovation-portal/identity")))
	if err != nil {
		return err
	}

	var roleChecker rbac.RoleChecker = rbac.StaticRoleChecker{}
	var policyChecker healthhandler.PolicyChecker
	if cfg.AuthzEngine == config.AuthzEngineOPA {
		evaluator, err := newEvaluator(ctx, cfg.AuthzPolicyFile)
		if err != nil {
			return err
		}
		roleChecker = evaluator
		policyChecker = evaluator
	}
	guard := rbac.NewGuard(tokens, stores.Accounts, rbac.WithRoleChecker(roleChecker))

	s := server.NewGRPCServer(server.Deps{
		Auth:                auth,
		Guard:               guard,
		HealthPinger:        healthhandler.PingFunc(stores.Ping),
		HealthPolicyChecker: policyChecker,
		Logger:              logger,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening",
			"addr", cfg.GRPCAddr,
			"dialect", stores.Dialect,
			"authz_engine", cfg.AuthzEngine,
			"otlp_export", providers.Exporting,
		)
		serveErr <- s.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gRPC server...")
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop timed out; forcing stop")
		s.Stop()
	}
	if err := <-serveErr; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	logger.Info("gRPC server stopped")
	return nil
}

// newEvaluator compiles the role policy from path, or the built-in policy when path is empty.
func newEvaluator(ctx context.Context, path string) (*engine.OPAEvaluator, error) {
	var policy string
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		policy = string(b)
	}
	return engine.NewOPAEvaluator(ctx, policy)
}
