package repository

import (
	"context"
	"time"

	"innovation-portal/backend/internal/account/domain"
)

// Repository defines persistence for accounts. Lookups return (nil, nil)
// when no account matches; errors are reserved for storage failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Create inserts a new account. An email collision, detected by the
	// storage uniqueness constraint, returns domain.ErrDuplicateEmail.
	Create(ctx context.Context, a *domain.Account) error
	UpdateRole(ctx context.Context, id string, role domain.Role, at time.Time) error
}
