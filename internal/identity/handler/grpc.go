package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"innovation-portal/backend/internal/account/domain"
	"innovation-portal/backend/internal/identity/service"
	"innovation-portal/backend/internal/server/interceptors"
)

// AuthServer implements AuthService for registration, login, token refresh,
// logout and the caller's own profile.
type AuthServer struct {
	auth *service.AuthService
}

var _ AuthServiceServer = (*AuthServer)(nil)

// NewAuthServer returns a new Auth gRPC server. auth must not be nil.
func NewAuthServer(auth *service.AuthService) *AuthServer {
	if auth == nil {
		panic("identity handler: nil auth service")
	}
	return &AuthServer{auth: auth}
}

// Register creates an account with role user. Tokens are not returned; the
// caller logs in separately.
func (s *AuthServer) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	acct, err := s.auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, authErr(ctx, "Register", err)
	}
	return &RegisterResponse{Message: "user created", Account: accountToResponse(acct)}, nil
}

// Login verifies the credentials and returns an access/refresh token pair.
func (s *AuthServer) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	pair, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, authErr(ctx, "Login", err)
	}
	return tokenPairToResponse(pair), nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *AuthServer) Refresh(ctx context.Context, req *RefreshRequest) (*TokenResponse, error) {
	pair, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, authErr(ctx, "Refresh", err)
	}
	return tokenPairToResponse(pair), nil
}

// Logout revokes the refresh token.
func (s *AuthServer) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	if err := s.auth.Logout(ctx, req.RefreshToken); err != nil {
		return nil, authErr(ctx, "Logout", err)
	}
	return &LogoutResponse{}, nil
}

// Me returns the account resolved by the auth interceptor.
func (s *AuthServer) Me(ctx context.Context, _ *MeRequest) (*AccountResponse, error) {
	acct, ok := interceptors.GetAccount(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
	return accountToResponse(acct), nil
}

// authErr maps auth service errors to gRPC status. Anything unrecognised is
// logged and returned as Internal without its cause.
func authErr(ctx context.Context, method string, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, "invalid input")
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return status.Error(codes.AlreadyExists, "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return status.Error(codes.Unauthenticated, "invalid or expired refresh token")
	default:
		slog.ErrorContext(ctx, "auth request failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func accountToResponse(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func tokenPairToResponse(p *service.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
	}
}
