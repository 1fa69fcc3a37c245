// Package storage opens the account and refresh token stores behind a
// DATABASE_URL, selecting Postgres or SQLite by scheme.
package storage

import (
	"context"
	"fmt"

	accountrepo "innovation-portal/backend/internal/account/repository"
	"innovation-portal/backend/internal/db"
	refreshrepo "innovation-portal/backend/internal/refreshtoken/repository"
)

// Stores holds the repositories of one database and its lifecycle hooks.
type Stores struct {
	Dialect       db.Dialect
	Accounts      accountrepo.Repository
	RefreshTokens refreshrepo.Repository
	// Ping checks the connection; used by the health service.
	Ping func(ctx context.Context) error
	// Close releases the connection pool.
	Close func()
}

// Open connects to databaseURL and returns the stores for its dialect.
// Migrations are not applied; see db/migrate.
func Open(ctx context.Context, databaseURL string) (*Stores, error) {
	dialect, target, err := db.ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	switch dialect {
	case db.DialectPostgres:
		pool, err := db.OpenPostgres(ctx, target)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Dialect:       dialect,
			Accounts:      accountrepo.NewPostgresRepository(pool),
			RefreshTokens: refreshrepo.NewPostgresRepository(pool),
			Ping:          pool.Ping,
			Close:         pool.Close,
		}, nil
	case db.DialectSQLite:
		sqlDB, err := db.OpenSQLite(target)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Dialect:       dialect,
			Accounts:      accountrepo.NewSQLiteRepository(sqlDB),
			RefreshTokens: refreshrepo.NewSQLiteRepository(sqlDB),
			Ping:          sqlDB.PingContext,
			Close:         func() { _ = sqlDB.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
