package store

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/observatorio/mcerdb/models"
)

const enrollmentSelect = `SELECT id, persona_id, anio, curso_id, nombre_curso, nota, nivel_mcer_id, institucion_id, estado
	FROM persona_nivel_mcer`

// FindEnrollments returns the rows of one person for one year, oldest first.
func (t *Tx) FindEnrollments(ctx context.Context, personID int64, year int) ([]models.Enrollment, error) {
	var rows []models.Enrollment
	q := t.rebind(enrollmentSelect + " WHERE persona_id = ? AND anio = ? ORDER BY id")
	if err := t.tx.SelectContext(ctx, &rows, q, personID, year); err != nil {
		return nil, errors.Wrap(err, "find enrollments")
	}
	return rows, nil
}

func (t *Tx) InsertEnrollment(ctx context.Context, e models.Enrollment) (int64, error) {
	id, err := t.insertID(ctx,
		`INSERT INTO persona_nivel_mcer (`+strings.Join(models.EnrollmentColumns, ", ")+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.PersonID, e.Year, e.CourseID, e.CourseName, e.Grade, e.MCERLevelID, e.InstitutionID, e.Status,
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert enrollment")
	}
	return id, nil
}

func (t *Tx) UpdateEnrollmentFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return t.updateFields(ctx, "persona_nivel_mcer", models.EnrollmentColumns, id, fields)
}
