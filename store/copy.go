package store

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// DomainTables are the tables copied between hosts, parents before children.
var DomainTables = []string{
	"tipos_documento", "instituciones", "ciudades", "cursos", "niveles_mcer",
	"personas", "persona_nivel_mcer", "asistencias",
}

// CopyTables replaces the content of tables in dst with the rows found in src.
// Everything happens in one dst transaction with foreign key checks relaxed.
func CopyTables(ctx context.Context, src, dst *DB, tables []string, log *logrus.Entry) (map[string]int64, error) {
	copied := make(map[string]int64, len(tables))
	err := dst.WithTx(ctx, func(tx *Tx) (err error) {
		restore, err := tx.relaxForeignKeys(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if rErr := restore(); rErr != nil && err == nil {
				err = rErr
			}
		}()

		if err := tx.truncate(ctx, tables); err != nil {
			return err
		}
		for _, table := range tables {
			n, err := copyTable(ctx, src, tx, table)
			if err != nil {
				return err
			}
			copied[table] = n
			log.WithFields(logrus.Fields{"table": table, "rows": n}).Info("table copied")
		}
		return tx.resetSequences(ctx, tables)
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

func (t *Tx) relaxForeignKeys(ctx context.Context) (func() error, error) {
	noop := func() error { return nil }
	switch t.dialect {
	case MySQL:
		if _, err := t.tx.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
			return nil, errors.Wrap(err, "disable foreign key checks")
		}
		return func() error {
			_, err := t.tx.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
			return errors.Wrap(err, "restore foreign key checks")
		}, nil
	case Postgres:
		// LOCAL ends with the transaction.
		_, err := t.tx.ExecContext(ctx, "SET LOCAL session_replication_role = replica")
		return noop, errors.Wrap(err, "relax foreign key checks")
	default:
		_, err := t.tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON")
		return noop, errors.Wrap(err, "defer foreign key checks")
	}
}

// truncate empties tables children first. Postgres TRUNCATE rejects a parent
// whose referencing table is not listed, so it is only used for the full domain set.
func (t *Tx) truncate(ctx context.Context, tables []string) error {
	if t.dialect == Postgres && containsAll(tables, DomainTables) {
		_, err := t.tx.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", "))
		return errors.Wrap(err, "truncate tables")
	}
	// TRUNCATE commits implicitly on MySQL.
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+tables[i]); err != nil {
			return errors.Wrapf(err, "clear %s", tables[i])
		}
	}
	return nil
}

func containsAll(tables, want []string) bool {
	for _, w := range want {
		if !contains(tables, w) {
			return false
		}
	}
	return true
}

func copyTable(ctx context.Context, src *DB, dst *Tx, table string) (int64, error) {
	rows, err := src.db.QueryxContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", table)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert := dst.rebind("INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")")

	var n int64
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return n, errors.Wrapf(err, "scan %s", table)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		if _, err := dst.tx.ExecContext(ctx, insert, values...); err != nil {
			return n, errors.Wrapf(err, "write %s", table)
		}
		n++
	}
	return n, errors.Wrapf(rows.Err(), "read %s", table)
}

func (t *Tx) resetSequences(ctx context.Context, tables []string) error {
	if t.dialect != Postgres {
		return nil
	}
	for _, table := range tables {
		q := `SELECT setval(pg_get_serial_sequence('` + table + `', 'id'), COALESCE(MAX(id), 1), MAX(id) IS NOT NULL) FROM ` + table
		if _, err := t.tx.ExecContext(ctx, q); err != nil {
			return errors.Wrapf(err, "reset sequence of %s", table)
		}
	}
	return nil
}
