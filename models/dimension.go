package models

// DimensionKind names one of the append-only lookup tables.
type DimensionKind string

const (
	DimensionDocumentType DimensionKind = "tipo_documento"
	DimensionInstitution  DimensionKind = "institucion"
	DimensionCity         DimensionKind = "ciudad"
	DimensionCourse       DimensionKind = "curso"
	DimensionMCERLevel    DimensionKind = "nivel_mcer"
)

// DimensionKinds lists every dimension in the order they are created by a full migration.
var DimensionKinds = []DimensionKind{
	DimensionDocumentType,
	DimensionInstitution,
	DimensionCity,
	DimensionCourse,
	DimensionMCERLevel,
}

var dimensionTables = map[DimensionKind]string{
	DimensionDocumentType: "tipos_documento",
	DimensionInstitution:  "instituciones",
	DimensionCity:         "ciudades",
	DimensionCourse:       "cursos",
	DimensionMCERLevel:    "niveles_mcer",
}

// Table returns the table backing the dimension, or "" for an unknown kind.
func (k DimensionKind) Table() string {
	return dimensionTables[k]
}

func (k DimensionKind) Valid() bool {
	_, ok := dimensionTables[k]
	return ok
}

// Dimension represents a row of any dimension table
type Dimension struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"nombre" json:"nombre"`
}
