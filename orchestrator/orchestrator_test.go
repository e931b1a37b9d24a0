package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/models"
	"github.com/observatorio/mcerdb/store/storetest"
)

func testLogger() (*logrus.Logger, *bytes.Buffer) {
	var out bytes.Buffer
	l := logrus.New()
	l.SetOutput(&out)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l, &out
}

func unit(name string, ran *[]string, err error) Unit {
	return Unit{Name: name, Run: func(ctx context.Context, log *logrus.Entry) (*importer.Stats, error) {
		*ran = append(*ran, name)
		log.Infof("hello from %s", name)
		s := importer.NewStats(name)
		s.RowsRead = 2
		return s, err
	}}
}

func TestFailSoft(t *testing.T) {
	log, _ := testLogger()
	var ran []string
	units := []Unit{
		unit("u1", &ran, nil),
		unit("u2", &ran, nil),
		unit("u3", &ran, errors.New("bad csv")),
		unit("u4", &ran, nil),
		unit("u5", &ran, nil),
	}

	sum := New(log, units).Run(context.Background())
	assert.Equal(t, []string{"u1", "u2", "u3", "u4", "u5"}, ran)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 4, sum.Succeeded)
	assert.False(t, sum.Aborted)
	assert.False(t, sum.OK())
	assert.Equal(t, Failed, sum.Results[2].State)
	assert.EqualError(t, sum.Results[2].Err, "bad csv")
	assert.Contains(t, sum.Results[3].Output, "hello from u4")
	assert.NotContains(t, sum.Results[3].Output, "hello from u3")
}

func TestPanicBecomesFailure(t *testing.T) {
	log, _ := testLogger()
	var ran []string
	units := []Unit{
		{Name: "boom", Run: func(context.Context, *logrus.Entry) (*importer.Stats, error) { panic("nil map") }},
		unit("after", &ran, nil),
	}

	sum := New(log, units).Run(context.Background())
	assert.Equal(t, Failed, sum.Results[0].State)
	assert.Contains(t, sum.Results[0].Err.Error(), "panic: nil map")
	assert.Equal(t, Succeeded, sum.Results[1].State)
}

func TestConnectivityAborts(t *testing.T) {
	log, _ := testLogger()
	var ran []string
	unreachable := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	units := []Unit{
		unit("u1", &ran, nil),
		unit("u2", &ran, &importer.SourceImportError{Source: "u2", Err: unreachable}),
		unit("u3", &ran, nil),
	}

	sum := New(log, units).Run(context.Background())
	assert.Equal(t, []string{"u1", "u2"}, ran)
	assert.True(t, sum.Aborted)
	assert.Equal(t, Pending, sum.Results[2].State)
	assert.Equal(t, 1, sum.Pending())
}

func TestCancelledRunLeavesPending(t *testing.T) {
	log, _ := testLogger()
	ctx, cancel := context.WithCancel(context.Background())
	var ran []string
	units := []Unit{
		{Name: "first", Run: func(context.Context, *logrus.Entry) (*importer.Stats, error) {
			cancel()
			return importer.NewStats("first"), nil
		}},
		unit("second", &ran, nil),
	}

	sum := New(log, units).Run(ctx)
	assert.Empty(t, ran)
	assert.True(t, sum.Aborted)
	assert.ErrorIs(t, sum.AbortErr, context.Canceled)
}

type fakeObserver struct {
	units map[string]string
	runs  int
}

func (f *fakeObserver) ObserveUnit(source, state string, _ map[string]int, _ time.Duration) {
	f.units[source] = state
}

func (f *fakeObserver) ObserveRun(time.Time, time.Duration, int) { f.runs++ }

type failingRecorder struct{}

func (failingRecorder) StartRun(context.Context, models.ImportRun) error {
	return errors.New("no table")
}
func (failingRecorder) FinishSource(context.Context, models.ImportRunSource) error {
	return errors.New("no table")
}
func (failingRecorder) FinishRun(context.Context, models.ImportRun) error {
	return errors.New("no table")
}

func TestRecorderErrorsAreNotFatal(t *testing.T) {
	log, out := testLogger()
	var ran []string
	obs := &fakeObserver{units: map[string]string{}}

	sum := New(log, []Unit{unit("u1", &ran, nil), unit("u2", &ran, errors.New("x"))},
		WithRecorder(failingRecorder{}), WithObserver(obs)).Run(context.Background())
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, map[string]string{"u1": "succeeded", "u2": "failed"}, obs.units)
	assert.Equal(t, 1, obs.runs)
	assert.Contains(t, out.String(), "could not record run")
}

func TestSourceUnitsAgainstSQLite(t *testing.T) {
	db := storetest.Open(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docentes.csv"), []byte("DOCUMENTO;NOMBRE\n1;Ana\n2;Luis\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notas.csv"), []byte("DOCUMENTO;CURSO;NOTA;AÑO\n1;colombo;4,0;2022\n"), 0o600))

	m, err := importer.ParseManifest([]byte(`
version: 1
sources:
  - {name: docentes, kind: persons, file: docentes.csv}
  - {name: faltante, kind: enrollment, file: missing.csv}
  - {name: notas, kind: enrollment, file: notas.csv}
`))
	require.NoError(t, err)

	log, _ := testLogger()
	sum := New(log, SourceUnits(db, m, m.Sources, dir), WithRecorder(db)).Run(context.Background())
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Results[0].Stats.PersonsCreated)
	assert.Equal(t, 1, sum.Results[2].Stats.Enrollments[importer.Inserted])

	var srcErr *importer.SourceImportError
	assert.ErrorAs(t, sum.Results[1].Err, &srcErr)

	runs, err := db.LastRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sum.RunID, runs[0].ID)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Equal(t, 1, runs[0].Failed)

	sources, err := db.RunSources(context.Background(), sum.RunID)
	require.NoError(t, err)
	assert.Len(t, sources, 3)

	// second run changes nothing
	again := New(log, SourceUnits(db, m, m.Sources, dir)).Run(context.Background())
	assert.Zero(t, again.Results[0].Stats.Changed())
	assert.Zero(t, again.Results[2].Stats.Changed())
}
