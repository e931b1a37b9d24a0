package importer

import (
	"context"
	"database/sql"
	"io"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/observatorio/mcerdb/models"
)

// BackfillStats mirrors the actualizados / sin_cambios / no_encontrados report.
type BackfillStats struct {
	RowsRead  int
	Updated   int
	Unchanged int
	NotFound  int
	Skipped   int

	// CoursesCreated counts cursos rows inserted while filling course ids.
	CoursesCreated int
}

// BackfillCourseNames fills nombre_curso on existing enrollments from a
// (document, course) CSV. Persons and enrollments are never created.
func BackfillCourseNames(ctx context.Context, st Store, src Source, r io.Reader, aliases AliasTable, log *logrus.Entry) (*BackfillStats, error) {
	stats := &BackfillStats{}
	cr, err := NewCSVReader(r, src.Delimiter, src.Encoding)
	if err != nil {
		return stats, err
	}
	header, err := readHeader(cr)
	if err != nil {
		return stats, errors.Wrap(err, "read header")
	}
	required := []Field{FieldDocumentNumber, FieldCourse}
	headers, err := ResolveHeaders(header, aliases, required)
	if err != nil {
		return stats, err
	}
	normalizer := NewNormalizer(headers, required, src.Year, "")
	resolver := NewResolver(st)
	upserter := NewUpserter(st, st)

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return stats, errors.Wrapf(err, "line %d", line)
		}
		if blankRow(row) {
			continue
		}
		stats.RowsRead++

		rec, err := normalizer.Normalize(line, row)
		if err != nil || rec.Year == 0 {
			stats.Skipped++
			continue
		}
		persons, err := st.FindPersonsByDocument(ctx, rec.DocumentNumber)
		if err != nil {
			return stats, errors.Wrapf(err, "line %d", line)
		}
		switch len(persons) {
		case 0:
			stats.NotFound++
			continue
		case 1:
		default:
			stats.Skipped++
			log.WithField("line", line).Warnf("document %q matches %d persons", rec.DocumentNumber, len(persons))
			continue
		}

		resolveCourse := func(ctx context.Context) (sql.NullInt64, error) {
			return resolver.Resolve(ctx, models.DimensionCourse, rec.Course)
		}
		outcome, err := upserter.BackfillCourseName(ctx, persons[0].ID, rec.Year, rec.Course, resolveCourse)
		if err != nil {
			return stats, errors.Wrapf(err, "line %d", line)
		}
		switch outcome {
		case UpdatedBackfill:
			stats.Updated++
		case NotFound:
			stats.NotFound++
		default:
			stats.Unchanged++
		}
	}

	stats.CoursesCreated = resolver.Created()[models.DimensionCourse]
	log.WithFields(logrus.Fields{
		"actualizados":   stats.Updated,
		"sin_cambios":    stats.Unchanged,
		"no_encontrados": stats.NotFound,
		"omitidos":       stats.Skipped,
		"cursos_creados": stats.CoursesCreated,
	}).Info("course names backfilled")
	return stats, nil
}
