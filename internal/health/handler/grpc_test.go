package handler

import (
	"context"
	"errors"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

// mockPolicyChecker implements PolicyChecker for tests.
type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error {
	return m.healthErr
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		pinger Pinger
		policy PolicyChecker
		want   healthpb.HealthCheckResponse_ServingStatus
	}{
		{"no dependencies", nil, nil, healthpb.HealthCheckResponse_SERVING},
		{"pinger success", &mockPinger{}, nil, healthpb.HealthCheckResponse_SERVING},
		{"pinger failure", &mockPinger{pingErr: errors.New("connection refused")}, nil, healthpb.HealthCheckResponse_NOT_SERVING},
		{"policy success", nil, &mockPolicyChecker{}, healthpb.HealthCheckResponse_SERVING},
		{"policy failure", nil, &mockPolicyChecker{healthErr: errors.New("rego compile failed")}, healthpb.HealthCheckResponse_NOT_SERVING},
		{"both ok", &mockPinger{}, &mockPolicyChecker{}, healthpb.HealthCheckResponse_SERVING},
		{"both, policy fails", &mockPinger{}, &mockPolicyChecker{healthErr: errors.New("policy error")}, healthpb.HealthCheckResponse_NOT_SERVING},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(tt.pinger, tt.policy)
			resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
			if err != nil {
				t.Fatalf("Check must not return a gRPC error: %v", err)
			}
			if resp.GetStatus() != tt.want {
				t.Errorf("status = %v, want %v", resp.GetStatus(), tt.want)
			}
		})
	}
}

func TestPingFunc(t *testing.T) {
	called := false
	var p Pinger = PingFunc(func(ctx context.Context) error {
		called = true
		return nil
	})
	srv := NewServer(p, nil)
	if _, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "portal.auth.v1.AuthService"}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !called {
		t.Error("PingFunc was not called")
	}
}
