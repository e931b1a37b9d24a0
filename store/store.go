// Package store is the sqlx-backed relational store shared by every import unit.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite3"
)

// DB is the explicit store handle passed to every import unit.
type DB struct {
	db      *sqlx.DB
	dialect string
}

// Open connects and pings the store. A failed ping is reported as a connectivity error.
func Open(ctx context.Context, driver, dsn string, maxOpenConns int) (*DB, error) {
	if err := checkDialect(driver); err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if driver == SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectivityError{Err: err}
	}
	return &DB{db: db, dialect: driver}, nil
}

// New wraps an already opened connection.
func New(db *sqlx.DB, driver string) *DB {
	return &DB{db: db, dialect: driver}
}

func checkDialect(driver string) error {
	switch driver {
	case Postgres, MySQL, SQLite:
		return nil
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
}

func (d *DB) Close() error           { return d.db.Close() }
func (d *DB) Dialect() string        { return d.dialect }
func (d *DB) SQLDB() *sql.DB         { return d.db.DB }
func (d *DB) rebind(q string) string { return d.db.Rebind(q) }

func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return &ConnectivityError{Err: err}
	}
	return nil
}

// Tx is one scoped transaction. Repositories used by the importer hang off it.
type Tx struct {
	tx      *sqlx.Tx
	dialect string
}

func (t *Tx) Dialect() string { return t.dialect }

func (t *Tx) rebind(q string) string { return t.tx.Rebind(q) }

// WithTx runs fn inside a transaction. It commits when fn returns nil and rolls
// back on error or panic; the panic is re-raised after the rollback.
func (d *DB) WithTx(ctx context.Context, fn func(*Tx) error) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		if IsConnectivity(err) {
			return &ConnectivityError{Err: err}
		}
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logrus.WithError(rbErr).Warn("rollback failed")
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = errors.Wrap(cErr, "commit transaction")
		}
	}()

	return fn(&Tx{tx: tx, dialect: d.dialect})
}

// insertID runs an INSERT and returns the generated id.
func (t *Tx) insertID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if t.dialect == Postgres {
		var id int64
		if err := t.tx.QueryRowxContext(ctx, t.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := t.tx.ExecContext(ctx, t.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
