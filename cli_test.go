package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, exitDB, exitCode(errors.Wrap(withCode(exitDB, errors.New("down")), "open")))
	assert.NoError(t, withCode(exitUsage, nil))
}

const testManifest = `version: 1
sources:
  - name: estudiantes
    kind: enrollment
    file: estudiantes.csv
    year: 2023
  - name: ausente
    kind: enrollment
    file: ausente.csv
`

const testCSV = "NÚMERO DE IDENTIFICACIÓN;NOMBRE COMPLETO;CURSO\n" +
	"123;Ana Pérez;INTENSIFICACION\n" +
	"456;Luis Gómez;Sabados\n"

// setupEnv points the configuration at a fresh SQLite file and data dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "estudiantes.csv"), []byte(testCSV), 0o644))
	manifest := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(testManifest), 0o644))

	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", filepath.Join(dir, "mcerdb.db"))
	t.Setenv("DATA_DIR", data)
	t.Setenv("SOURCES_MANIFEST", manifest)
	t.Setenv("METRICS_FILE", filepath.Join(dir, "mcerdb.prom"))
	t.Setenv("LOG_LEVEL", "silent")
	return dir
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(dir, "missing.env")))
	err := cmd.Execute()
	if err != nil && strings.Contains(err.Error(), "cgo") {
		t.Skipf("sqlite unavailable: %v", err)
	}
	return out.String(), err
}

func TestRunReportsFailedSources(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, dir, "run")
	require.Error(t, err)
	assert.Equal(t, exitUnitFailed, exitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 sources failed")
	assert.Contains(t, out, "estudiantes")
	assert.Contains(t, out, "ausente")
	assert.FileExists(t, filepath.Join(dir, "mcerdb.prom"))

	out, err = execute(t, dir, "run", "--only", "estudiantes")
	require.NoError(t, err)
	assert.Contains(t, out, "1 exitosas, 0 fallidas")

	out, err = execute(t, dir, "report", "--year", "2023", "--xlsx", filepath.Join(dir, "dashboard.xlsx"))
	require.NoError(t, err)
	assert.Contains(t, out, "Inscripciones por año")
	assert.FileExists(t, filepath.Join(dir, "dashboard.xlsx"))
}

func TestImportSingleFile(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "data", "estudiantes.csv")

	_, err := execute(t, dir, "import", file, "--year", "2023")
	require.NoError(t, err)

	out, err := execute(t, dir, "backfill-course-names", file, "--year", "2023")
	require.NoError(t, err)
	assert.Contains(t, out, "actualizados:   0")
	assert.Contains(t, out, "sin_cambios:    2")
}

func TestUsageErrors(t *testing.T) {
	dir := setupEnv(t)

	for name, args := range map[string][]string{
		"unknown source":   {"run", "--only", "nope"},
		"unknown flag":     {"run", "--bogus"},
		"missing file":     {"import"},
		"unknown kind":     {"import", "x.csv", "--kind", "grades"},
		"no year":          {"backfill-course-names", "x.csv"},
		"copy unconfirmed": {"copy"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, dir, args...)
			require.Error(t, err)
			assert.Equal(t, exitUsage, exitCode(err), err.Error())
		})
	}
}

func TestInvalidConfiguration(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("DB_DRIVER", "oracle")

	_, err := execute(t, dir, "migrate", "status")
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
}
