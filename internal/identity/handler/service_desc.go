package handler

import (
	"context"

	"google.golang.org/grpc"

	"innovation-portal/backend/internal/platform/rpc"
)

// AuthServiceName is the fully qualified gRPC service name.
const AuthServiceName = "portal.auth.v1.AuthService"

// Full method names, as seen by interceptors.
const (
	MethodRegister = "/" + AuthServiceName + "/Register"
	MethodLogin    = "/" + AuthServiceName + "/Login"
	MethodRefresh  = "/" + AuthServiceName + "/Refresh"
	MethodLogout   = "/" + AuthServiceName + "/Logout"
	MethodMe       = "/" + AuthServiceName + "/Me"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string           `json:"message"`
	Account *AccountResponse `json:"account"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct{}

type MeRequest struct{}

// TokenResponse carries a token pair. ExpiresIn is the access token lifetime
// in seconds.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AccountResponse is an account without its password hash. Timestamps are
// RFC 3339 in UTC.
type AccountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AuthServiceServer is the server API for AuthService.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Me(context.Context, *MeRequest) (*AccountResponse, error)
}

// AuthServiceDesc describes AuthService for grpc.ServiceRegistrar. Messages
// travel over the json codec.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: rpc.Unary(MethodRegister, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: rpc.Unary(MethodLogin, AuthServiceServer.Login)},
		{MethodName: "Refresh", Handler: rpc.Unary(MethodRefresh, AuthServiceServer.Refresh)},
		{MethodName: "Logout", Handler: rpc.Unary(MethodLogout, AuthServiceServer.Logout)},
		{MethodName: "Me", Handler: rpc.Unary(MethodMe, AuthServiceServer.Me)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "portal/auth/v1/auth.json",
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}
