// Package migrations applies the embedded goose migrations for the
// radarlink schema. SQLite and PostgreSQL carry separate migration sets
// because their auto-increment and type syntax differ.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedMigrations embed.FS

// Dialect selects the migration set and the goose dialect.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "pgx"
)

// Migrate runs all pending migrations for the given dialect against db.
func Migrate(db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(embedMigrations)

	var dir string
	switch dialect {
	case DialectSQLite:
		dir = "sqlite"
	case DialectPostgres:
		dir = "postgres"
	default:
		return fmt.Errorf("migration error: unknown dialect %q", dialect)
	}

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
