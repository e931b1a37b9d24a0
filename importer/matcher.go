package importer

import (
	"context"
	"database/sql"

	"github.com/observatorio/mcerdb/models"
)

type PersonStore interface {
	FindPersonsByDocument(ctx context.Context, number string) ([]models.Person, error)
	GetPerson(ctx context.Context, id int64) (models.Person, error)
	InsertPerson(ctx context.Context, p models.Person) (int64, error)
	UpdatePersonFields(ctx context.Context, id int64, fields map[string]interface{}) error
}

type PersonOutcome int

const (
	PersonUnchanged PersonOutcome = iota
	PersonCreated
	PersonUpdated
)

func (o PersonOutcome) String() string {
	switch o {
	case PersonCreated:
		return "created"
	case PersonUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Matcher resolves rows to persons by exact document number. Stored attributes
// are only ever filled when blank: the first imported value wins.
type Matcher struct {
	store PersonStore
	byDoc map[string]int64
	byID  map[int64]models.Person
}

func NewMatcher(store PersonStore) *Matcher {
	return &Matcher{
		store: store,
		byDoc: make(map[string]int64),
		byID:  make(map[int64]models.Person),
	}
}

// MatchOrCreate returns the id of the person with p's document number, creating it
// when absent and filling blank attributes when present.
func (m *Matcher) MatchOrCreate(ctx context.Context, p models.Person) (int64, PersonOutcome, error) {
	if id, ok := m.byDoc[p.DocumentNumber]; ok {
		updated, err := m.UpdateIfBlank(ctx, id, p)
		return id, outcomeOf(updated), err
	}

	found, err := m.store.FindPersonsByDocument(ctx, p.DocumentNumber)
	if err != nil {
		return 0, PersonUnchanged, err
	}
	switch len(found) {
	case 0:
		id, err := m.store.InsertPerson(ctx, p)
		if err != nil {
			return 0, PersonUnchanged, err
		}
		p.ID = id
		m.remember(p)
		return id, PersonCreated, nil
	case 1:
		m.remember(found[0])
		updated, err := m.UpdateIfBlank(ctx, found[0].ID, p)
		return found[0].ID, outcomeOf(updated), err
	default:
		ids := make([]int64, len(found))
		for i, f := range found {
			ids[i] = f.ID
		}
		return 0, PersonUnchanged, &PersonConflictError{Document: p.DocumentNumber, IDs: ids}
	}
}

func outcomeOf(updated bool) PersonOutcome {
	if updated {
		return PersonUpdated
	}
	return PersonUnchanged
}

func (m *Matcher) remember(p models.Person) {
	m.byDoc[p.DocumentNumber] = p.ID
	m.byID[p.ID] = p
}

// UpdateIfBlank copies every attribute of incoming that is blank on the stored person.
// It reports whether anything was written.
func (m *Matcher) UpdateIfBlank(ctx context.Context, id int64, incoming models.Person) (bool, error) {
	current, ok := m.byID[id]
	if !ok {
		var err error
		if current, err = m.store.GetPerson(ctx, id); err != nil {
			return false, err
		}
	}

	fields := make(map[string]interface{})
	fillInt(fields, "tipo_documento_id", &current.DocumentTypeID, incoming.DocumentTypeID)
	fillString(fields, "nombre_completo", &current.FullName, incoming.FullName)
	fillString(fields, "sexo", &current.Sex, incoming.Sex)
	if !current.BirthDate.Valid && incoming.BirthDate.Valid {
		fields["fecha_nacimiento"] = incoming.BirthDate
		current.BirthDate = incoming.BirthDate
	}
	fillString(fields, "correo", &current.Email, incoming.Email)
	fillString(fields, "telefono", &current.Phone, incoming.Phone)
	fillString(fields, "direccion", &current.Address, incoming.Address)
	fillInt(fields, "ciudad_id", &current.CityID, incoming.CityID)
	fillString(fields, "tipo_poblacion", &current.PopulationType, incoming.PopulationType)

	if len(fields) == 0 {
		m.remember(current)
		return false, nil
	}
	if err := m.store.UpdatePersonFields(ctx, id, fields); err != nil {
		return false, err
	}
	m.remember(current)
	return true, nil
}

func blank(s sql.NullString) bool { return !s.Valid || s.String == "" }

func fillString(fields map[string]interface{}, col string, dst *sql.NullString, src sql.NullString) {
	if blank(*dst) && !blank(src) {
		fields[col] = src
		*dst = src
	}
}

func fillInt(fields map[string]interface{}, col string, dst *sql.NullInt64, src sql.NullInt64) {
	if !dst.Valid && src.Valid {
		fields[col] = src
		*dst = src
	}
}
