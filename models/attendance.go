package models

import "database/sql"

// Attendance represents the asistencias table
type Attendance struct {
	ID            int64          `db:"id" json:"id"`
	PersonID      int64          `db:"persona_id" json:"persona_id"`
	InstitutionID sql.NullInt64  `db:"institucion_id" json:"institucion_id,omitempty"`
	CourseID      sql.NullInt64  `db:"curso_id" json:"curso_id,omitempty"`
	Year          int            `db:"anio" json:"anio"`
	Session       string         `db:"sesion" json:"sesion"`
	Value         sql.NullString `db:"asistencia" json:"asistencia,omitempty"`
}

var AttendanceColumns = []string{
	"persona_id", "institucion_id", "curso_id", "anio", "sesion", "asistencia",
}
