package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"innovation-portal/backend/internal/account/domain"
	"innovation-portal/backend/internal/db"
)

// emailConstraint is the unique constraint on accounts.email.
const emailConstraint = "accounts_email_key"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool db.Querier
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns an account repository backed by pool.
func NewPostgresRepository(pool db.Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectAccount = `SELECT id, email, password_hash, role, created_at, updated_at FROM accounts`

// GetByID returns the account for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+` WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id).
			Wrap(err)
	}
	return a, nil
}

// GetByEmail returns the account for the normalized email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+` WHERE email = $1`, domain.NormalizeEmail(email))
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return a, nil
}

// Create inserts a. The ID must be set; the email is normalized before insert.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	a.Email = domain.NormalizeEmail(a.Email)
	if err := a.Validate(); err != nil {
		return oops.Code("ACCOUNT_INVALID").Wrap(err)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Email, a.PasswordHash, string(a.Role), a.CreatedAt, a.UpdatedAt)
	if isEmailUniqueViolation(err) {
		return oops.Code("ACCOUNT_EMAIL_TAKEN").Wrap(domain.ErrDuplicateEmail)
	}
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("id", a.ID).
			Wrap(err)
	}
	return nil
}

// UpdateRole sets the role of account id and bumps updated_at. Missing
// accounts are a no-op.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role domain.Role, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE accounts SET role = $2, updated_at = $3 WHERE id = $1`, id, string(role), at)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_ROLE_FAILED").
			With("operation", "update account role").
			With("id", id).
			Wrap(err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}

func isEmailUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailConstraint
}
