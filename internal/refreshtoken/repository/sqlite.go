package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"

	"innovation-portal/backend/internal/refreshtoken/domain"
)

// SQLiteRepository implements Repository using SQLite. Timestamps are stored
// as Unix milliseconds.
type SQLiteRepository struct {
	sqlDB *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository returns a refresh token repository backed by sqlDB.
func NewSQLiteRepository(sqlDB *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{sqlDB: sqlDB}
}

func (r *SQLiteRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	_, err := r.sqlDB.ExecContext(ctx, `
		INSERT INTO refresh_tokens (jti, account_id, revoked, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.AccountID, t.Revoked, toMillis(t.IssuedAt), toMillis(t.ExpiresAt))
	if err != nil {
		return oops.Code("REFRESH_TOKEN_CREATE_FAILED").
			With("operation", "insert refresh token").
			With("account_id", t.AccountID).
			Wrap(err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, jti string) (*domain.RefreshToken, error) {
	var (
		t                   domain.RefreshToken
		issuedAt, expiresAt int64
	)
	err := r.sqlDB.QueryRowContext(ctx, `
		SELECT jti, account_id, revoked, issued_at, expires_at
		FROM refresh_tokens
		WHERE jti = ?
	`, jti).Scan(&t.ID, &t.AccountID, &t.Revoked, &issuedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("REFRESH_TOKEN_GET_FAILED").
			With("operation", "get refresh token").
			Wrap(err)
	}
	t.IssuedAt = fromMillis(issuedAt)
	t.ExpiresAt = fromMillis(expiresAt)
	return &t, nil
}

func (r *SQLiteRepository) IsValid(ctx context.Context, jti string, now time.Time) (bool, error) {
	var valid bool
	err := r.sqlDB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE jti = ? AND revoked = 0 AND expires_at > ?
		)
	`, jti, toMillis(now)).Scan(&valid)
	if err != nil {
		return false, oops.Code("REFRESH_TOKEN_VALIDATE_FAILED").
			With("operation", "check refresh token").
			Wrap(err)
	}
	return valid, nil
}

func (r *SQLiteRepository) Revoke(ctx context.Context, jti string) error {
	_, err := r.sqlDB.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = 1 WHERE jti = ?`, jti)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_REVOKE_FAILED").
			With("operation", "revoke refresh token").
			Wrap(err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.sqlDB.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ? OR revoked = 1`, toMillis(before))
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_PURGE_FAILED").
			With("operation", "delete expired refresh tokens").
			Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_PURGE_FAILED").
			With("operation", "count purged refresh tokens").
			Wrap(err)
	}
	return n, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
