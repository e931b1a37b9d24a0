package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-faster/errors"

	"github.com/observatorio/mcerdb/models"
)

const personSelect = `SELECT id, tipo_documento_id, numero_documento, nombre_completo, sexo, fecha_nacimiento,
	correo, telefono, direccion, ciudad_id, tipo_poblacion FROM personas`

func (t *Tx) FindPersonsByDocument(ctx context.Context, number string) ([]models.Person, error) {
	var rows []models.Person
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(personSelect+" WHERE numero_documento = ? ORDER BY id"), number); err != nil {
		return nil, errors.Wrap(err, "find persons by document")
	}
	return rows, nil
}

func (t *Tx) GetPerson(ctx context.Context, id int64) (models.Person, error) {
	var p models.Person
	if err := t.tx.GetContext(ctx, &p, t.rebind(personSelect+" WHERE id = ?"), id); err != nil {
		return p, errors.Wrapf(err, "get person %d", id)
	}
	return p, nil
}

func (t *Tx) InsertPerson(ctx context.Context, p models.Person) (int64, error) {
	id, err := t.insertID(ctx,
		`INSERT INTO personas (`+strings.Join(models.PersonColumns, ", ")+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.DocumentTypeID, p.DocumentNumber, p.FullName, p.Sex, p.BirthDate,
		p.Email, p.Phone, p.Address, p.CityID, p.PopulationType,
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert person")
	}
	return id, nil
}

func (t *Tx) UpdatePersonFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return t.updateFields(ctx, "personas", models.PersonColumns, id, fields)
}

// updateFields sets the given columns on one row. Column names are checked against allowed.
func (t *Tx) updateFields(ctx context.Context, table string, allowed []string, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !contains(allowed, col) {
			return fmt.Errorf("%s: column %q cannot be updated", table, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = col + " = ?"
		args = append(args, fields[col])
	}
	args = append(args, id)

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := t.tx.ExecContext(ctx, t.rebind(query), args...); err != nil {
		return errors.Wrapf(err, "update %s %d", table, id)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
