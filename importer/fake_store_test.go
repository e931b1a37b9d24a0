package importer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/observatorio/mcerdb/models"
)

// memStore is an in-memory Store with the same fill semantics as store.Tx.
type memStore struct {
	nextID      int64
	dims        map[models.DimensionKind][]models.Dimension
	persons     []models.Person
	enrollments []models.Enrollment
	attendance  []models.Attendance

	loads         map[models.DimensionKind]int
	failDimension error
	failUpdate    error
}

func newMemStore() *memStore {
	return &memStore{
		dims:  make(map[models.DimensionKind][]models.Dimension),
		loads: make(map[models.DimensionKind]int),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) LoadDimension(_ context.Context, kind models.DimensionKind) ([]models.Dimension, error) {
	if m.failDimension != nil {
		return nil, m.failDimension
	}
	m.loads[kind]++
	return append([]models.Dimension(nil), m.dims[kind]...), nil
}

func (m *memStore) InsertDimension(_ context.Context, kind models.DimensionKind, name string) (int64, error) {
	if m.failDimension != nil {
		return 0, m.failDimension
	}
	for _, d := range m.dims[kind] {
		if d.Name == name {
			return 0, fmt.Errorf("duplicate %s %q", kind, name)
		}
	}
	d := models.Dimension{ID: m.id(), Name: name}
	m.dims[kind] = append(m.dims[kind], d)
	return d.ID, nil
}

func (m *memStore) FindPersonsByDocument(_ context.Context, number string) ([]models.Person, error) {
	var out []models.Person
	for _, p := range m.persons {
		if p.DocumentNumber == number {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetPerson(_ context.Context, id int64) (models.Person, error) {
	for _, p := range m.persons {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Person{}, sql.ErrNoRows
}

func (m *memStore) InsertPerson(_ context.Context, p models.Person) (int64, error) {
	p.ID = m.id()
	m.persons = append(m.persons, p)
	return p.ID, nil
}

func (m *memStore) UpdatePersonFields(_ context.Context, id int64, fields map[string]interface{}) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}
	for i := range m.persons {
		if m.persons[i].ID != id {
			continue
		}
		p := &m.persons[i]
		for col, v := range fields {
			switch col {
			case "tipo_documento_id":
				p.DocumentTypeID = v.(sql.NullInt64)
			case "nombre_completo":
				p.FullName = v.(sql.NullString)
			case "sexo":
				p.Sex = v.(sql.NullString)
			case "fecha_nacimiento":
				p.BirthDate = v.(sql.NullTime)
			case "correo":
				p.Email = v.(sql.NullString)
			case "telefono":
				p.Phone = v.(sql.NullString)
			case "direccion":
				p.Address = v.(sql.NullString)
			case "ciudad_id":
				p.CityID = v.(sql.NullInt64)
			case "tipo_poblacion":
				p.PopulationType = v.(sql.NullString)
			default:
				return fmt.Errorf("unknown column %s", col)
			}
		}
		return nil
	}
	return sql.ErrNoRows
}

func (m *memStore) FindEnrollments(_ context.Context, personID int64, year int) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range m.enrollments {
		if e.PersonID == personID && e.Year == year {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) InsertEnrollment(_ context.Context, e models.Enrollment) (int64, error) {
	e.ID = m.id()
	m.enrollments = append(m.enrollments, e)
	return e.ID, nil
}

func (m *memStore) UpdateEnrollmentFields(_ context.Context, id int64, fields map[string]interface{}) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}
	for i := range m.enrollments {
		if m.enrollments[i].ID != id {
			continue
		}
		e := &m.enrollments[i]
		for col, v := range fields {
			switch col {
			case "curso_id":
				e.CourseID = v.(sql.NullInt64)
			case "nombre_curso":
				e.CourseName = v.(sql.NullString)
			case "nota":
				e.Grade = v.(decimal.NullDecimal)
			case "nivel_mcer_id":
				e.MCERLevelID = v.(sql.NullInt64)
			case "institucion_id":
				e.InstitutionID = v.(sql.NullInt64)
			case "estado":
				e.Status = v.(sql.NullString)
			default:
				return fmt.Errorf("unknown column %s", col)
			}
		}
		return nil
	}
	return sql.ErrNoRows
}

func (m *memStore) FindAttendance(_ context.Context, a models.Attendance) (*models.Attendance, error) {
	for i, row := range m.attendance {
		if row.PersonID == a.PersonID && row.InstitutionID == a.InstitutionID &&
			row.CourseID == a.CourseID && row.Year == a.Year && row.Session == a.Session {
			found := m.attendance[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertAttendance(_ context.Context, a models.Attendance) (int64, error) {
	a.ID = m.id()
	m.attendance = append(m.attendance, a)
	return a.ID, nil
}

func (m *memStore) UpdateAttendanceFields(_ context.Context, id int64, fields map[string]interface{}) error {
	for i := range m.attendance {
		if m.attendance[i].ID == id {
			if v, ok := fields["asistencia"]; ok {
				m.attendance[i].Value = v.(sql.NullString)
			}
			return nil
		}
	}
	return sql.ErrNoRows
}
