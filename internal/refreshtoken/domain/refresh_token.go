package domain

import "time"

// RefreshToken is the persisted record behind an issued refresh token. ID is
// the token's jti. A new record is created for every login; records are never
// reused.
type RefreshToken struct {
	ID        string
	AccountID string
	Revoked   bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsUsable reports whether the record is not revoked and not yet expired at now.
func (t *RefreshToken) IsUsable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
