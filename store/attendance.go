package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-faster/errors"

	"github.com/observatorio/mcerdb/models"
)

// FindAttendance looks up the row for (person, institution, course, year, session).
// Null keys match null columns.
func (t *Tx) FindAttendance(ctx context.Context, a models.Attendance) (*models.Attendance, error) {
	where := []string{"persona_id = ?"}
	args := []interface{}{a.PersonID}
	for _, k := range []struct {
		col string
		val sql.NullInt64
	}{{"institucion_id", a.InstitutionID}, {"curso_id", a.CourseID}} {
		if k.val.Valid {
			where = append(where, k.col+" = ?")
			args = append(args, k.val.Int64)
		} else {
			where = append(where, k.col+" IS NULL")
		}
	}
	where = append(where, "anio = ?", "sesion = ?")
	args = append(args, a.Year, a.Session)

	q := `SELECT id, persona_id, institucion_id, curso_id, anio, sesion, asistencia FROM asistencias
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	var rows []models.Attendance
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "find attendance")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (t *Tx) InsertAttendance(ctx context.Context, a models.Attendance) (int64, error) {
	id, err := t.insertID(ctx,
		`INSERT INTO asistencias (`+strings.Join(models.AttendanceColumns, ", ")+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.PersonID, a.InstitutionID, a.CourseID, a.Year, a.Session, a.Value,
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert attendance")
	}
	return id, nil
}

func (t *Tx) UpdateAttendanceFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return t.updateFields(ctx, "asistencias", models.AttendanceColumns, id, fields)
}
