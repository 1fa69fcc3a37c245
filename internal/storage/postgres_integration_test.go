//go:build integration

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"innovation-portal/backend/internal/account/domain"
	"innovation-portal/backend/internal/db"
	"innovation-portal/backend/internal/db/migrate"
	refreshdomain "innovation-portal/backend/internal/refreshtoken/domain"
	"innovation-portal/backend/internal/storage"
)

func TestPostgresStores_FullCycle(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("portal"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, migrate.Run(connStr, "up"))
	// Second run is a no-op.
	require.NoError(t, migrate.Run(connStr, "up"))

	stores, err := storage.Open(ctx, connStr)
	require.NoError(t, err)
	defer stores.Close()
	assert.Equal(t, db.DialectPostgres, stores.Dialect)
	require.NoError(t, stores.Ping(ctx))

	now := time.Now().UTC().Truncate(time.Microsecond)
	acct := &domain.Account{
		ID: "acct-pg-1", Email: "pg@example.com", PasswordHash: "hash",
		Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, stores.Accounts.Create(ctx, acct))

	dup := *acct
	dup.ID = "acct-pg-2"
	dup.Email = "PG@Example.com"
	err = stores.Accounts.Create(ctx, &dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	require.NoError(t, stores.Accounts.UpdateRole(ctx, acct.ID, domain.RoleAdmin, now.Add(time.Minute)))
	got, err := stores.Accounts.GetByEmail(ctx, "pg@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	missing, err := stores.Accounts.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	live := &refreshdomain.RefreshToken{ID: "jti-live", AccountID: acct.ID, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := &refreshdomain.RefreshToken{ID: "jti-expired", AccountID: acct.ID, IssuedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, stores.RefreshTokens.Create(ctx, live))
	require.NoError(t, stores.RefreshTokens.Create(ctx, expired))

	ok, err := stores.RefreshTokens.IsValid(ctx, "jti-live", now)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, stores.RefreshTokens.Revoke(ctx, "jti-live"))
	ok, err = stores.RefreshTokens.IsValid(ctx, "jti-live", now)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := stores.RefreshTokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "expired and revoked tokens are both purged")

	require.NoError(t, migrate.Run(connStr, "down"))
}
