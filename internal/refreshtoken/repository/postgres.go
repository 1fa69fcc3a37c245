package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"innovation-portal/backend/internal/db"
	"innovation-portal/backend/internal/refreshtoken/domain"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool db.Querier
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns a refresh token repository backed by pool.
func NewPostgresRepository(pool db.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (jti, account_id, revoked, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.AccountID, t.Revoked, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_CREATE_FAILED").
			With("operation", "insert refresh token").
			With("account_id", t.AccountID).
			Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, jti string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.pool.QueryRow(ctx, `
		SELECT jti, account_id, revoked, issued_at, expires_at
		FROM refresh_tokens
		WHERE jti = $1
	`, jti).Scan(&t.ID, &t.AccountID, &t.Revoked, &t.IssuedAt, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("REFRESH_TOKEN_GET_FAILED").
			With("operation", "get refresh token").
			Wrap(err)
	}
	return &t, nil
}

func (r *PostgresRepository) IsValid(ctx context.Context, jti string, now time.Time) (bool, error) {
	var valid bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE jti = $1 AND NOT revoked AND expires_at > $2
		)
	`, jti, now).Scan(&valid)
	if err != nil {
		return false, oops.Code("REFRESH_TOKEN_VALIDATE_FAILED").
			With("operation", "check refresh token").
			Wrap(err)
	}
	return valid, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, jti string) error {
	_, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE jti = $1`, jti)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_REVOKE_FAILED").
			With("operation", "revoke refresh token").
			Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1 OR revoked`, before)
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_PURGE_FAILED").
			With("operation", "delete expired refresh tokens").
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}
