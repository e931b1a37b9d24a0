// Package storetest opens throwaway SQLite stores with the full schema applied.
package storetest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"

	"github.com/observatorio/mcerdb/migrations"
	"github.com/observatorio/mcerdb/store"
)

// Open returns a migrated SQLite store in t's temp dir. The test is skipped
// when the sqlite driver was built without cgo.
func Open(t testing.TB) *store.DB {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.ToSlash(filepath.Join(t.TempDir(), "mcerdb.db")) + "?_foreign_keys=1"
	db, err := store.Open(ctx, store.SQLite, dsn, 1)
	if err != nil {
		if strings.Contains(err.Error(), "cgo") {
			t.Skipf("sqlite unavailable: %v", err)
		}
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Up(ctx, db.SQLDB(), store.SQLite, goose.NopLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
