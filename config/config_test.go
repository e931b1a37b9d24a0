package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	defer c.Unload()

	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, 5432, c.Database.Port)
	assert.Equal(t, 2*time.Minute, c.Database.StatementTimeout)
	assert.True(t, c.AutoMigrate)
	assert.Equal(t, logrus.InfoLevel, c.Logger().GetLevel())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("DB_DRIVER=sqlite3\nDB_PATH=/tmp/x.db\nLOG_LEVEL=debug\nAUTO_MIGRATE=false\n"), 0o600))
	for _, k := range []string{"DB_DRIVER", "DB_PATH", "LOG_LEVEL", "AUTO_MIGRATE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	c, err := Load(file)
	require.NoError(t, err)
	defer c.Unload()

	assert.Equal(t, "sqlite3", c.Database.Driver)
	assert.Equal(t, "/tmp/x.db", c.Database.Path)
	assert.False(t, c.AutoMigrate)
	assert.Equal(t, logrus.DebugLevel, c.Logger().GetLevel())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestPostgresDSNQuotesValues(t *testing.T) {
	pg := DatabaseOptions{Driver: "postgres", Host: "db", Port: 5432, User: "ana maria", Password: `p a'ss\`, Name: "obs 2023"}
	dsn, err := pg.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, `user='ana maria'`)
	assert.Contains(t, dsn, `password='p a\'ss\\'`)
	assert.Contains(t, dsn, `dbname='obs 2023'`)
}

func TestDSN(t *testing.T) {
	pg := DatabaseOptions{Driver: "postgres", Host: "db", Port: 5433, User: "u", Password: "p", Name: "obs", StatementTimeout: 30 * time.Second, ConnectTimeout: 5 * time.Second}
	dsn, err := pg.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "host='db' port=5433")
	assert.Contains(t, dsn, "statement_timeout=30000")
	assert.Contains(t, dsn, "connect_timeout=5")

	my := pg
	my.Driver = "mysql"
	my.Port = 3306
	dsn, err = my.DSN()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "u:p@tcp(db:3306)/obs?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")

	lite := DatabaseOptions{Driver: "sqlite3", Path: "data/obs.db", StatementTimeout: time.Second}
	dsn, err = lite.DSN()
	require.NoError(t, err)
	assert.Equal(t, "file:data/obs.db?_busy_timeout=1000&_foreign_keys=1", dsn)

	_, err = DatabaseOptions{Driver: "mssql"}.DSN()
	assert.Error(t, err)
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "import.log")
	f, logger, err := NewLogger(LogOptions{Level: "warn", Format: "json", Path: path})
	require.NoError(t, err)
	defer f.Close()

	logger.Info("hidden")
	logger.Warn("visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"msg":"visible"`)
}
