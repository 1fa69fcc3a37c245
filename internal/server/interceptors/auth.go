package interceptors

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"innovation-portal/backend/internal/account/domain"
	"innovation-portal/backend/internal/platform/rbac"
)

// AuthUnary returns a unary server interceptor that runs the guard for every
// method listed in methodRoles and stores the caller's account in context.
// An empty role list only requires authentication. Methods absent from
// methodRoles are public (e.g. AuthService Register, Login; Health Check).
func AuthUnary(guard *rbac.Guard, methodRoles map[string][]domain.Role) grpc.UnaryServerInterceptor {
	checks := make(map[string]rbac.Check, len(methodRoles))
	for method, roles := range methodRoles {
		checks[method] = guard.Require(roles...)
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		check, guarded := checks[info.FullMethod]
		if !guarded {
			return handler(ctx, req)
		}
		acct, err := check(ctx, authorizationHeader(ctx))
		if err != nil {
			return nil, guardStatus(ctx, info.FullMethod, err)
		}
		return handler(WithAccount(ctx, acct), req)
	}
}

// guardStatus maps a guard error to a gRPC status. Rejection reasons are
// logged at debug and never sent to the caller.
func guardStatus(ctx context.Context, method string, err error) error {
	var rej *rbac.Rejection
	if errors.As(err, &rej) {
		slog.DebugContext(ctx, "request rejected", "method", method, "reason", string(rej.Reason))
	}
	switch {
	case errors.Is(err, rbac.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, rbac.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "missing or invalid authorization")
	default:
		slog.ErrorContext(ctx, "authorization failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

// authorizationHeader returns the first authorization metadata value as sent,
// or "" if missing. Parsing is left to the guard.
func authorizationHeader(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
