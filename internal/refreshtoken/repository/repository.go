package repository

import (
	"context"
	"time"

	"innovation-portal/backend/internal/refreshtoken/domain"
)

// Repository defines persistence for refresh token records.
type Repository interface {
	// Create appends a new record. Records are never updated except by Revoke.
	Create(ctx context.Context, t *domain.RefreshToken) error
	// GetByID returns the record for jti, or nil if not found.
	GetByID(ctx context.Context, jti string) (*domain.RefreshToken, error)
	// IsValid reports whether a record for jti exists, is not revoked, and
	// expires after now.
	IsValid(ctx context.Context, jti string, now time.Time) (bool, error)
	// Revoke marks the record revoked. Unknown or already revoked jtis are a no-op.
	Revoke(ctx context.Context, jti string) error
	// DeleteExpired removes records that expired at or before before, or were
	// revoked. Returns the number of rows removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
