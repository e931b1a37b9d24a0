package store

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/observatorio/mcerdb/models"
)

func dimensionTable(kind models.DimensionKind) (string, error) {
	table := kind.Table()
	if table == "" {
		return "", fmt.Errorf("unknown dimension %q", kind)
	}
	return table, nil
}

// LoadDimension returns every row of the dimension table ordered by id.
func (t *Tx) LoadDimension(ctx context.Context, kind models.DimensionKind) ([]models.Dimension, error) {
	table, err := dimensionTable(kind)
	if err != nil {
		return nil, err
	}
	var rows []models.Dimension
	if err := t.tx.SelectContext(ctx, &rows, "SELECT id, nombre FROM "+table+" ORDER BY id"); err != nil {
		return nil, errors.Wrapf(err, "load %s", table)
	}
	return rows, nil
}

func (t *Tx) InsertDimension(ctx context.Context, kind models.DimensionKind, name string) (int64, error) {
	table, err := dimensionTable(kind)
	if err != nil {
		return 0, err
	}
	id, err := t.insertID(ctx, "INSERT INTO "+table+" (nombre) VALUES (?)", name)
	if err != nil {
		return 0, errors.Wrapf(err, "insert into %s", table)
	}
	return id, nil
}
