package db

import "embed"

// MigrationFS embeds the SQL migrations for both dialects, under
// migrations/postgres and migrations/sqlite. Used by the migrate runner.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var MigrationFS embed.FS

// Dialect names the storage engine behind a DATABASE_URL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// MigrationDir returns the MigrationFS directory holding d's migrations.
func (d Dialect) MigrationDir() string {
	return "migrations/" + string(d)
}
