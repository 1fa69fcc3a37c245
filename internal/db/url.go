package db

import (
	"fmt"
	"strings"
)

// ParseURL returns the dialect of databaseURL and the connection target for
// its driver: the URL itself for Postgres, the file path for SQLite.
func ParseURL(databaseURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", databaseURL)
		}
		return DialectSQLite, path, nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme in %q", redact(databaseURL))
	}
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(databaseURL string) string {
	if i := strings.Index(databaseURL, "://"); i >= 0 {
		return databaseURL[:i] + "://..."
	}
	if len(databaseURL) > 8 {
		return databaseURL[:8] + "..."
	}
	return databaseURL
}
