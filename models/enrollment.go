package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Enrollment represents the persona_nivel_mcer table: one person in one course for one year.
type Enrollment struct {
	ID            int64               `db:"id" json:"id"`
	PersonID      int64               `db:"persona_id" json:"persona_id"`
	Year          int                 `db:"anio" json:"anio"`
	CourseID      sql.NullInt64       `db:"curso_id" json:"curso_id,omitempty"`
	CourseName    sql.NullString      `db:"nombre_curso" json:"nombre_curso,omitempty"`
	Grade         decimal.NullDecimal `db:"nota" json:"nota,omitempty"`
	MCERLevelID   sql.NullInt64       `db:"nivel_mcer_id" json:"nivel_mcer_id,omitempty"`
	InstitutionID sql.NullInt64       `db:"institucion_id" json:"institucion_id,omitempty"`
	Status        sql.NullString      `db:"estado" json:"estado,omitempty"`
}

var EnrollmentColumns = []string{
	"persona_id", "anio", "curso_id", "nombre_curso", "nota", "nivel_mcer_id", "institucion_id", "estado",
}
