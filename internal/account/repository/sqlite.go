package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"innovation-portal/backend/internal/account/domain"
)

// SQLiteRepository implements Repository using SQLite. Timestamps are stored
// as Unix milliseconds.
type SQLiteRepository struct {
	sqlDB *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository returns an account repository backed by sqlDB.
func NewSQLiteRepository(sqlDB *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{sqlDB: sqlDB}
}

// GetByID returns the account for id, or nil if not found.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.sqlDB.QueryRowContext(ctx, selectAccount+` WHERE id = ?`, id)
	a, err := scanSQLiteAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
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
func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.sqlDB.QueryRowContext(ctx, selectAccount+` WHERE email = ?`, domain.NormalizeEmail(email))
	a, err := scanSQLiteAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
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
func (r *SQLiteRepository) Create(ctx context.Context, a *domain.Account) error {
	a.Email = domain.NormalizeEmail(a.Email)
	if err := a.Validate(); err != nil {
		return oops.Code("ACCOUNT_INVALID").Wrap(err)
	}
	_, err := r.sqlDB.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Email, a.PasswordHash, string(a.Role), toMillis(a.CreatedAt), toMillis(a.UpdatedAt))
	if isSQLiteEmailConflict(err) {
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
func (r *SQLiteRepository) UpdateRole(ctx context.Context, id string, role domain.Role, at time.Time) error {
	_, err := r.sqlDB.ExecContext(ctx, `UPDATE accounts SET role = ?, updated_at = ? WHERE id = ?`, string(role), toMillis(at), id)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_ROLE_FAILED").
			With("operation", "update account role").
			With("id", id).
			Wrap(err)
	}
	return nil
}

func scanSQLiteAccount(row *sql.Row) (*domain.Account, error) {
	var (
		a                    domain.Account
		role                 string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return &a, nil
}

// isSQLiteEmailConflict reports a unique violation on accounts.email. Other
// constraint failures, such as a primary key collision, are not masked.
func isSQLiteEmailConflict(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code() != sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
		return false
	}
	return strings.Contains(err.Error(), "accounts.email")
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
