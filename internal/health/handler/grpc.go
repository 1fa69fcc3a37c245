package handler

import (
	"context"
	"log/slog"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// checkTimeout bounds each readiness probe.
const checkTimeout = 2 * time.Second

// Pinger is used for readiness (e.g. *sql.DB, *pgxpool.Pool via PingFunc).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a ping function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// PolicyChecker is used for readiness (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server implements grpc.health.v1.Health for readiness/liveness. Every
// service name reports the same status.
type Server struct {
	healthpb.UnimplementedHealthServer
	pinger        Pinger
	policyChecker PolicyChecker
}

// NewServer returns a new Health gRPC server. Either dependency may be nil,
// in which case its check is skipped.
func NewServer(pinger Pinger, policyChecker PolicyChecker) *Server {
	return &Server{pinger: pinger, policyChecker: policyChecker}
}

// Check returns SERVING when the store answers a ping and the policy engine
// evaluates; NOT_SERVING otherwise. Probe failures are never gRPC errors.
func (s *Server) Check(ctx context.Context, _ *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			slog.WarnContext(ctx, "health: database ping failed", "error", err)
			return notServing(), nil
		}
	}
	if s.policyChecker != nil {
		if err := s.policyChecker.HealthCheck(ctx); err != nil {
			slog.WarnContext(ctx, "health: policy check failed", "error", err)
			return notServing(), nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func notServing() *healthpb.HealthCheckResponse {
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
}
