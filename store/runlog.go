package store

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/observatorio/mcerdb/models"
)

// StartRun records a new row in import_runs with status running.
func (d *DB) StartRun(ctx context.Context, run models.ImportRun) error {
	_, err := d.db.ExecContext(ctx,
		d.rebind(`INSERT INTO import_runs (id, started_at, status, succeeded, failed) VALUES (?, ?, ?, 0, 0)`),
		run.ID.String(), run.StartedAt.UTC(), models.RunStatusRunning,
	)
	return errors.Wrap(err, "start run")
}

func (d *DB) FinishSource(ctx context.Context, s models.ImportRunSource) error {
	_, err := d.db.ExecContext(ctx,
		d.rebind(`INSERT INTO import_run_sources
			(run_id, position, source, status, started_at, ended_at, rows_read, rows_skipped, rows_changed, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.RunID.String(), s.Position, s.Source, s.Status, s.StartedAt.UTC(), s.EndedAt.UTC(),
		s.RowsRead, s.RowsSkipped, s.RowsChanged, s.Error,
	)
	return errors.Wrapf(err, "record source %s", s.Source)
}

func (d *DB) FinishRun(ctx context.Context, run models.ImportRun) error {
	_, err := d.db.ExecContext(ctx,
		d.rebind(`UPDATE import_runs SET ended_at = ?, status = ?, succeeded = ?, failed = ?, error_message = ? WHERE id = ?`),
		run.EndedAt, run.Status, run.Succeeded, run.Failed, run.Error, run.ID.String(),
	)
	return errors.Wrap(err, "finish run")
}

// LastRuns returns the most recent runs, newest first.
func (d *DB) LastRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	var runs []models.ImportRun
	err := d.db.SelectContext(ctx, &runs,
		d.rebind(`SELECT id, started_at, ended_at, status, succeeded, failed, error_message
			FROM import_runs ORDER BY started_at DESC LIMIT ?`), limit)
	return runs, errors.Wrap(err, "list runs")
}

func (d *DB) RunSources(ctx context.Context, id uuid.UUID) ([]models.ImportRunSource, error) {
	var rows []models.ImportRunSource
	err := d.db.SelectContext(ctx, &rows,
		d.rebind(`SELECT run_id, position, source, status, started_at, ended_at, rows_read, rows_skipped, rows_changed, error_message
			FROM import_run_sources WHERE run_id = ? ORDER BY position`), id.String())
	return rows, errors.Wrap(err, "list run sources")
}
