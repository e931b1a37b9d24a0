package importer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/observatorio/mcerdb/models"
)

func testLog() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

func importString(t *testing.T, st Store, src Source, csv string) *Stats {
	t.Helper()
	log, _ := testLog()
	stats, err := ImportSource(context.Background(), st, src, strings.NewReader(csv), DefaultAliases(), log)
	require.NoError(t, err)
	return stats
}

func TestImportExampleScenario(t *testing.T) {
	st := newMemStore()
	src := Source{Name: "intensificacion", Kind: KindEnrollment, Year: 2023}
	csv := "\ufeffNÚMERO DE IDENTIFICACIÓN;NOMBRE;CURSO\n123;Ana;INTENSIFICACION\n"

	stats := importString(t, st, src, csv)
	require.Len(t, st.persons, 1)
	assert.Equal(t, "123", st.persons[0].DocumentNumber)
	require.Len(t, st.dims[models.DimensionCourse], 1)
	assert.Equal(t, "intensificacion", st.dims[models.DimensionCourse][0].Name)
	require.Len(t, st.enrollments, 1)
	assert.Equal(t, st.persons[0].ID, st.enrollments[0].PersonID)
	assert.Equal(t, 2023, st.enrollments[0].Year)
	assert.Equal(t, "intensificacion", st.enrollments[0].CourseName.String)
	assert.Equal(t, 1, stats.Enrollments[Inserted])
	assert.Equal(t, 3, stats.Changed())

	again := importString(t, st, src, csv)
	assert.Zero(t, again.Changed())
	assert.Equal(t, 1, again.Enrollments[Skipped])
	assert.Len(t, st.persons, 1)
	assert.Len(t, st.enrollments, 1)
	assert.Len(t, st.dims[models.DimensionCourse], 1)
}

func TestImportCountsSkippedRows(t *testing.T) {
	st := newMemStore()
	src := Source{Name: "estudiantes", Kind: KindEnrollment}
	csv := "DOCUMENTO;CURSO;AÑO\n;colombo;2020\n10;colombo;\n11;colombo;2021\n;;\n"

	stats := importString(t, st, src, csv)
	assert.Equal(t, 3, stats.RowsRead, "blank line ignored")
	assert.Equal(t, 2, stats.RowsSkipped)
	assert.Equal(t, 1, stats.SkippedByReason["missing numero_documento"])
	assert.Equal(t, 1, stats.SkippedByReason[ReasonMissingYear])
	assert.Len(t, st.enrollments, 1)
}

func TestImportPersonConflictSkipsRow(t *testing.T) {
	st := newMemStore()
	st.persons = []models.Person{{ID: 1, DocumentNumber: "55"}, {ID: 2, DocumentNumber: "55"}}
	st.nextID = 2
	log, hook := testLog()

	stats, err := ImportSource(context.Background(), st,
		Source{Name: "docentes", Kind: KindPersons},
		strings.NewReader("DOCUMENTO;NOMBRE\n55;Ana\n56;Luis\n"), DefaultAliases(), log)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PersonConflicts)
	assert.Equal(t, 1, stats.PersonsCreated)
	assert.Equal(t, 1, stats.SkippedByReason[ReasonPersonConflict])

	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || (e.Level == logrus.WarnLevel && strings.Contains(e.Message, `"55"`))
	}
	assert.True(t, warned)
}

func TestImportDimensionErrorAborts(t *testing.T) {
	st := newMemStore()
	st.failDimension = errors.New("server closed the connection")
	log, _ := testLog()

	_, err := ImportSource(context.Background(), st,
		Source{Name: "instituciones", Kind: KindInstitutions},
		strings.NewReader("INSTITUCION\nColegio A\n"), DefaultAliases(), log)
	var dimErr *DimensionResolutionError
	require.ErrorAs(t, err, &dimErr)
	assert.Contains(t, err.Error(), "line 2")
}

func TestImportMissingColumns(t *testing.T) {
	log, _ := testLog()
	_, err := ImportSource(context.Background(), newMemStore(),
		Source{Name: "asistencias", Kind: KindAttendance, Year: 2023},
		strings.NewReader("DOCUMENTO;ASISTENCIA\n1;SI\n"), DefaultAliases(), log)
	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []Field{FieldSession}, missing.Missing)
}

func TestImportInstitutionsDedup(t *testing.T) {
	st := newMemStore()
	stats := importString(t, st, Source{Name: "instituciones", Kind: KindInstitutions},
		"INSTITUCION EDUCATIVA\nColegio A\ncolegio a \nColegio B\n")
	assert.Len(t, st.dims[models.DimensionInstitution], 2)
	assert.Equal(t, 2, stats.DimensionsCreated[models.DimensionInstitution])
}

func TestImportAttendanceLatin1(t *testing.T) {
	st := newMemStore()
	enc, err := charmap.ISO8859_1.NewEncoder().String("DOCUMENTO,SESIÓN,ASISTENCIA,INSTITUCIÓN\n7,1,SI,Colegio Él\n7,2,NO,Colegio Él\n")
	require.NoError(t, err)
	log, _ := testLog()

	stats, err := ImportSource(context.Background(), st,
		Source{Name: "asistencias", Kind: KindAttendance, Year: 2024, Delimiter: ",", Encoding: "latin1"},
		bytes.NewReader([]byte(enc)), DefaultAliases(), log)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Attendance[Inserted])
	assert.Equal(t, "COLEGIO ÉL", st.dims[models.DimensionInstitution][0].Name)
}

func TestImportHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	log, _ := testLog()
	_, err := ImportSource(ctx, newMemStore(), Source{Name: "docentes", Kind: KindPersons},
		strings.NewReader("DOCUMENTO\n1\n"), DefaultAliases(), log)
	assert.ErrorIs(t, err, context.Canceled)
}
