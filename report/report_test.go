package report

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/orchestrator"
	"github.com/observatorio/mcerdb/store"
	"github.com/observatorio/mcerdb/store/storetest"
)

func seed(t *testing.T, db *store.DB) {
	t.Helper()
	csv := "DOCUMENTO;CURSO;AÑO\n1;intensificacion;2023\n2;intensificacion sabados;2023\n3;colombo;2024\n4;;2024\n"
	err := db.WithTx(context.Background(), func(tx *store.Tx) error {
		_, err := importer.ImportSource(context.Background(), tx,
			importer.Source{Name: "estudiantes", Kind: importer.KindEnrollment},
			strings.NewReader(csv), importer.DefaultAliases(), logrus.NewEntry(logrus.New()))
		return err
	})
	require.NoError(t, err)
}

func classifier(t *testing.T) *importer.Classifier {
	m, err := importer.LoadManifest("")
	require.NoError(t, err)
	return importer.NewClassifier(m.CourseCategories)
}

func TestBuildAndRenderDashboard(t *testing.T) {
	db := storetest.Open(t)
	seed(t, db)

	d, err := Build(context.Background(), db, classifier(t), 0)
	require.NoError(t, err)
	assert.Equal(t, []store.CourseCoverage{{Year: 2023, WithName: 2}, {Year: 2024, WithName: 1, WithoutName: 1}}, d.Coverage)
	assert.ElementsMatch(t, []CategoryCount{
		{Category: "intensificacion", Courses: 1, Enrollments: 1},
		{Category: "sabados", Courses: 1, Enrollments: 1},
		{Category: "colombo", Courses: 1, Enrollments: 1},
	}, d.Categories)

	var buf bytes.Buffer
	RenderDashboard(&buf, d)
	out := buf.String()
	assert.Contains(t, out, "Inscripciones por año")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "sabados")

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(path, d))
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Por año", "Cobertura", "Categorias"}, f.GetSheetList())
	rows, err := f.GetRows("Por año")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"anio", "inscripciones", "personas"}, {"2023", "2", "2"}, {"2024", "2", "2"}}, rows)
}

func TestCategorizeOrdersBySize(t *testing.T) {
	got := Categorize(classifier(t), []store.CourseCount{
		{Course: "ingles basico", Enrollments: 2},
		{Course: "colombo a1", Enrollments: 5},
		{Course: "ingles avanzado", Enrollments: 4},
	})
	assert.Equal(t, []CategoryCount{
		{Category: importer.CategoryOther, Courses: 2, Enrollments: 6},
		{Category: "colombo", Courses: 1, Enrollments: 5},
	}, got)
}

func TestRenderSummary(t *testing.T) {
	stats := importer.NewStats("docentes")
	stats.RowsRead = 10
	stats.PersonsCreated = 4
	sum := &orchestrator.Summary{
		RunID:   uuid.New(),
		Elapsed: 3 * time.Second,
		Results: []orchestrator.Result{
			{Name: "docentes", Position: 1, State: orchestrator.Succeeded, Stats: stats},
			{Name: "notas", Position: 2, State: orchestrator.Failed, Err: errors.New("missing required columns: nota"), Output: "level=error msg=boom\n"},
			{Name: "asistencias", Position: 3, State: orchestrator.Pending},
		},
		Succeeded: 1,
		Failed:    1,
	}

	var buf bytes.Buffer
	RenderSummary(&buf, sum)
	RenderFailureOutput(&buf, sum)
	out := buf.String()
	assert.Contains(t, out, "docentes")
	assert.Contains(t, out, "missing required columns")
	assert.Contains(t, out, "1 exitosas, 1 fallidas, 1 pendientes")
	assert.Contains(t, out, "--- notas ---")
	assert.Contains(t, out, "msg=boom")
}
