package report

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX exports the dashboard to a workbook with one sheet per table.
func WriteXLSX(path string, d *Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{name: "Por año", header: []interface{}{"anio", "inscripciones", "personas"}},
		{name: "Cobertura", header: []interface{}{"anio", "con_nombre", "sin_nombre"}},
		{name: "Categorias", header: []interface{}{"categoria", "cursos", "inscripciones"}},
	}
	for _, r := range d.PerYear {
		sheets[0].rows = append(sheets[0].rows, []interface{}{r.Year, r.Enrollments, r.Persons})
	}
	for _, r := range d.Coverage {
		sheets[1].rows = append(sheets[1].rows, []interface{}{r.Year, r.WithName, r.WithoutName})
	}
	for _, c := range d.Categories {
		sheets[2].rows = append(sheets[2].rows, []interface{}{c.Category, c.Courses, c.Enrollments})
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return errors.Wrap(err, "rename sheet")
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return errors.Wrapf(err, "create sheet %s", s.name)
		}
		if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
			return errors.Wrapf(err, "write %s header", s.name)
		}
		for j, row := range s.rows {
			row := row
			if err := f.SetSheetRow(s.name, fmt.Sprintf("A%d", j+2), &row); err != nil {
				return errors.Wrapf(err, "write %s row %d", s.name, j+2)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "save workbook")
	}
	return nil
}
