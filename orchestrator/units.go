package orchestrator

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/store"
)

// SourceUnit imports one manifest source from dataDir inside its own transaction.
func SourceUnit(db *store.DB, m *importer.Manifest, src importer.Source, dataDir string) Unit {
	aliases := m.AliasesFor(src)
	path := src.Path(dataDir)
	return Unit{
		Name: src.Name,
		Run: func(ctx context.Context, log *logrus.Entry) (*importer.Stats, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, &importer.SourceImportError{Source: src.Name, Err: errors.Wrap(err, "open source file")}
			}
			defer f.Close()

			var stats *importer.Stats
			err = db.WithTx(ctx, func(tx *store.Tx) (err error) {
				stats, err = importer.ImportSource(ctx, tx, src, f, aliases, log)
				return err
			})
			if err != nil {
				return stats, &importer.SourceImportError{Source: src.Name, Err: err}
			}
			stats.Log(log)
			return stats, nil
		},
	}
}

// SourceUnits builds one unit per source, keeping their order.
func SourceUnits(db *store.DB, m *importer.Manifest, sources []importer.Source, dataDir string) []Unit {
	units := make([]Unit, len(sources))
	for i, src := range sources {
		units[i] = SourceUnit(db, m, src, dataDir)
	}
	return units
}
