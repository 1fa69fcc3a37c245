package server

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"innovation-portal/backend/internal/account/domain"
	adminhandler "innovation-portal/backend/internal/admin/handler"
	healthhandler "innovation-portal/backend/internal/health/handler"
	identityhandler "innovation-portal/backend/internal/identity/handler"
	identityservice "innovation-portal/backend/internal/identity/service"
	"innovation-portal/backend/internal/platform/rbac"
	"innovation-portal/backend/internal/server/interceptors"
)

// Deps holds service dependencies for gRPC handlers.
type Deps struct {
	// Auth is the auth service for Register/Login/Refresh/Logout. Required.
	Auth *identityservice.AuthService
	// Guard enforces MethodRoles. If nil, no RPC is authenticated and guarded RPCs fail with Unauthenticated.
	Guard *rbac.Guard
	// HealthPinger is used by the health service for readiness. If nil, Check skips the DB ping.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by the health service for readiness (e.g. OPA evaluator). If nil, Check skips the policy check.
	HealthPolicyChecker healthhandler.PolicyChecker
	// Logger receives one line per RPC. If nil, slog.Default is used.
	Logger *slog.Logger
}

// MethodRoles lists the guarded RPCs and the roles allowed to call them.
// Methods not listed are public.
var MethodRoles = map[string][]domain.Role{
	identityhandler.MethodMe:     {domain.RoleUser, domain.RoleAdmin},
	adminhandler.MethodGetStatus: {domain.RoleAdmin},
}

// quietMethods are not logged per request.
var quietMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
}

// NewGRPCServer returns a gRPC server with OpenTelemetry instrumentation, the
// logging and auth interceptors, and every service registered.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	chain := []grpc.UnaryServerInterceptor{interceptors.LoggingUnary(deps.Logger, quietMethods)}
	if deps.Guard != nil {
		chain = append(chain, interceptors.AuthUnary(deps.Guard, MethodRoles))
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - portal.auth.v1.AuthService   → internal/identity/handler
//   - portal.admin.v1.AdminService → internal/admin/handler
//   - grpc.health.v1.Health        → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	identityhandler.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(deps.Auth))
	adminhandler.RegisterAdminServiceServer(s, adminhandler.NewServer())
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker))
}
