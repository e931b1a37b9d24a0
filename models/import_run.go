package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Run statuses shared by import_runs and import_run_sources.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusAborted   = "aborted"
)

// ImportRun represents the import_runs table
type ImportRun struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	StartedAt time.Time      `db:"started_at" json:"started_at"`
	EndedAt   sql.NullTime   `db:"ended_at" json:"ended_at,omitempty"`
	Status    string         `db:"status" json:"status"`
	Succeeded int            `db:"succeeded" json:"succeeded"`
	Failed    int            `db:"failed" json:"failed"`
	Error     sql.NullString `db:"error_message" json:"error_message,omitempty"`
}

// ImportRunSource represents the import_run_sources table
type ImportRunSource struct {
	RunID       uuid.UUID      `db:"run_id" json:"run_id"`
	Position    int            `db:"position" json:"position"`
	Source      string         `db:"source" json:"source"`
	Status      string         `db:"status" json:"status"`
	StartedAt   time.Time      `db:"started_at" json:"started_at"`
	EndedAt     time.Time      `db:"ended_at" json:"ended_at"`
	RowsRead    int            `db:"rows_read" json:"rows_read"`
	RowsSkipped int            `db:"rows_skipped" json:"rows_skipped"`
	RowsChanged int            `db:"rows_changed" json:"rows_changed"`
	Error       sql.NullString `db:"error_message" json:"error_message,omitempty"`
}
