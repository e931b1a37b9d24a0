package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/go-faster/errors"
	"github.com/pressly/goose/v3"
)

//go:embed sql
var FS embed.FS

// RequiredTables are the tables the importer writes to, in foreign-key order.
var RequiredTables = []string{
	"tipos_documento",
	"instituciones",
	"ciudades",
	"cursos",
	"niveles_mcer",
	"personas",
	"persona_nivel_mcer",
	"asistencias",
	"import_runs",
	"import_run_sources",
}

func prepare(dialect string, logger goose.Logger) (string, error) {
	switch dialect {
	case "postgres", "mysql", "sqlite3":
	default:
		return "", fmt.Errorf("no migrations for dialect %q", dialect)
	}
	goose.SetBaseFS(FS)
	if logger != nil {
		goose.SetLogger(logger)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return "", errors.Wrap(err, "set goose dialect")
	}
	return path.Join("sql", dialect), nil
}

// Up applies every pending migration for the dialect.
func Up(ctx context.Context, db *sql.DB, dialect string, logger goose.Logger) error {
	dir, err := prepare(dialect, logger)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}

// Status prints the migration status through the goose logger.
func Status(ctx context.Context, db *sql.DB, dialect string, logger goose.Logger) error {
	dir, err := prepare(dialect, logger)
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, dir)
}

// InitSchema verifies that all required tables exist
func InitSchema(ctx context.Context, db *sql.DB, dialect string) error {
	var query string
	switch dialect {
	case "postgres":
		query = `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = current_schema()
				AND table_name = $1
			)`
	case "mysql":
		query = `
			SELECT COUNT(*) > 0 FROM information_schema.tables
			WHERE table_schema = DATABASE()
			AND table_name = ?`
	case "sqlite3":
		query = `SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = ?`
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	for _, table := range RequiredTables {
		var exists bool
		if err := db.QueryRowContext(ctx, query, table).Scan(&exists); err != nil {
			return errors.Wrapf(err, "check table %s", table)
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist", table)
		}
	}

	return nil
}
