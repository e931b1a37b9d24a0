package models

import "database/sql"

// Person represents the personas table
type Person struct {
	ID             int64          `db:"id" json:"id"`
	DocumentTypeID sql.NullInt64  `db:"tipo_documento_id" json:"tipo_documento_id,omitempty"`
	DocumentNumber string         `db:"numero_documento" json:"numero_documento"`
	FullName       sql.NullString `db:"nombre_completo" json:"nombre_completo,omitempty"`
	Sex            sql.NullString `db:"sexo" json:"sexo,omitempty"`
	BirthDate      sql.NullTime   `db:"fecha_nacimiento" json:"fecha_nacimiento,omitempty"`
	Email          sql.NullString `db:"correo" json:"correo,omitempty"`
	Phone          sql.NullString `db:"telefono" json:"telefono,omitempty"`
	Address        sql.NullString `db:"direccion" json:"direccion,omitempty"`
	CityID         sql.NullInt64  `db:"ciudad_id" json:"ciudad_id,omitempty"`
	PopulationType sql.NullString `db:"tipo_poblacion" json:"tipo_poblacion,omitempty"`
}

// PersonColumns are the mutable columns of personas, in insert order.
var PersonColumns = []string{
	"tipo_documento_id", "numero_documento", "nombre_completo", "sexo", "fecha_nacimiento",
	"correo", "telefono", "direccion", "ciudad_id", "tipo_poblacion",
}
