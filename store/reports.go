package store

import (
	"context"

	"github.com/go-faster/errors"
)

type YearCount struct {
	Year        int `db:"anio"`
	Enrollments int `db:"inscripciones"`
	Persons     int `db:"personas"`
}

// CourseCoverage tells how many enrollments of a year carry a course name.
type CourseCoverage struct {
	Year        int `db:"anio"`
	WithName    int `db:"con_nombre"`
	WithoutName int `db:"sin_nombre"`
}

type CourseCount struct {
	Course      string `db:"nombre_curso"`
	Enrollments int    `db:"inscripciones"`
}

func (d *DB) EnrollmentsPerYear(ctx context.Context) ([]YearCount, error) {
	var rows []YearCount
	err := d.db.SelectContext(ctx, &rows, `
		SELECT anio, COUNT(*) AS inscripciones, COUNT(DISTINCT persona_id) AS personas
		FROM persona_nivel_mcer
		GROUP BY anio
		ORDER BY anio`)
	return rows, errors.Wrap(err, "enrollments per year")
}

func (d *DB) CourseNameCoverage(ctx context.Context) ([]CourseCoverage, error) {
	var rows []CourseCoverage
	err := d.db.SelectContext(ctx, &rows, `
		SELECT anio,
			SUM(CASE WHEN nombre_curso IS NOT NULL AND nombre_curso <> '' THEN 1 ELSE 0 END) AS con_nombre,
			SUM(CASE WHEN nombre_curso IS NULL OR nombre_curso = '' THEN 1 ELSE 0 END) AS sin_nombre
		FROM persona_nivel_mcer
		GROUP BY anio
		ORDER BY anio`)
	return rows, errors.Wrap(err, "course name coverage")
}

// EnrollmentsPerCourse counts enrollments per course name, optionally for one year (0 = all).
func (d *DB) EnrollmentsPerCourse(ctx context.Context, year int) ([]CourseCount, error) {
	var rows []CourseCount
	err := d.db.SelectContext(ctx, &rows, d.rebind(`
		SELECT nombre_curso, COUNT(*) AS inscripciones
		FROM persona_nivel_mcer
		WHERE nombre_curso IS NOT NULL AND nombre_curso <> '' AND (? = 0 OR anio = ?)
		GROUP BY nombre_curso
		ORDER BY inscripciones DESC, nombre_curso`), year, year)
	return rows, errors.Wrap(err, "enrollments per course")
}

// CountRows returns the row count of each table.
func (d *DB) CountRows(ctx context.Context, tables []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var n int64
		if err := d.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, errors.Wrapf(err, "count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}
