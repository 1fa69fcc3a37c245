package engine

import (
	"context"

	"innovation-portal/backend/internal/account/domain"
)

// Evaluator decides role membership for guarded operations using OPA or other
// engines. It satisfies rbac.RoleChecker.
type Evaluator interface {
	// Allowed reports whether role may invoke an operation open to allowed.
	Allowed(ctx context.Context, role domain.Role, allowed []domain.Role) (bool, error)
	// HealthCheck verifies the engine can evaluate its policy.
	HealthCheck(ctx context.Context) error
}
