package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"innovation-portal/backend/internal/platform/rpc"
	"innovation-portal/backend/internal/server/interceptors"
)

// AdminServiceName is the fully qualified gRPC service name.
const AdminServiceName = "portal.admin.v1.AdminService"

// MethodGetStatus is the full method name of GetStatus.
const MethodGetStatus = "/" + AdminServiceName + "/GetStatus"

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Status string `json:"status"`
	Role   string `json:"role"`
}

// AdminServiceServer is the server API for AdminService.
type AdminServiceServer interface {
	GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error)
}

// Server implements AdminService for admin-only operations. Access control is
// enforced by the auth interceptor; see server.MethodRoles.
type Server struct{}

var _ AdminServiceServer = (*Server)(nil)

// NewServer returns a new Admin gRPC server.
func NewServer() *Server {
	return &Server{}
}

// GetStatus reports that the admin surface is reachable and echoes the
// caller's role.
func (s *Server) GetStatus(ctx context.Context, _ *GetStatusRequest) (*GetStatusResponse, error) {
	acct, ok := interceptors.GetAccount(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
	return &GetStatusResponse{Status: "ok", Role: string(acct.Role)}, nil
}

// AdminServiceDesc describes AdminService for grpc.ServiceRegistrar.
var AdminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: rpc.Unary(MethodGetStatus, AdminServiceServer.GetStatus)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "portal/admin/v1/admin.json",
}

// RegisterAdminServiceServer registers srv on s.
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminServiceDesc, srv)
}
