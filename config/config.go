package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultEnvFiles are loaded in order when present; later files do not override earlier ones.
var DefaultEnvFiles = []string{".env", ".env.local"}

type DatabaseOptions struct {
	Driver           string        `env:"DRIVER" envDefault:"postgres" validate:"oneof=postgres mysql sqlite3"`
	Host             string        `env:"HOST" envDefault:"localhost"`
	Port             int           `env:"PORT" envDefault:"5432" validate:"gte=0,lte=65535"`
	User             string        `env:"USER" envDefault:"postgres"`
	Password         string        `env:"PASSWORD"`
	Name             string        `env:"NAME" envDefault:"observatorio"`
	Path             string        `env:"PATH" envDefault:"observatorio.db"`
	StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT" envDefault:"2m" validate:"gte=0"`
	ConnectTimeout   time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s" validate:"gte=0"`
	MaxOpenConns     int           `env:"MAX_OPEN_CONNS" envDefault:"4" validate:"gte=1"`
}

// DSN builds the driver-specific connection string.
func (d DatabaseOptions) DSN() (string, error) {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable connect_timeout=%d statement_timeout=%d",
			conninfoValue(d.Host), d.Port, conninfoValue(d.User), conninfoValue(d.Password), conninfoValue(d.Name),
			int(d.ConnectTimeout.Seconds()), d.StatementTimeout.Milliseconds(),
		), nil
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		cfg.DBName = d.Name
		cfg.ParseTime = true
		cfg.Timeout = d.ConnectTimeout
		cfg.ReadTimeout = d.StatementTimeout
		cfg.WriteTimeout = d.StatementTimeout
		cfg.Params = map[string]string{"charset": "utf8mb4"}
		return cfg.FormatDSN(), nil
	case "sqlite3":
		q := url.Values{}
		q.Set("_foreign_keys", "1")
		q.Set("_busy_timeout", strconv.FormatInt(d.StatementTimeout.Milliseconds(), 10))
		return "file:" + filepath.ToSlash(d.Path) + "?" + q.Encode(), nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", d.Driver)
	}
}

var conninfoEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// conninfoValue single-quotes a lib/pq keyword value.
func conninfoValue(v string) string {
	return "'" + conninfoEscaper.Replace(v) + "'"
}

type LogOptions struct {
	Level  string `env:"LEVEL" envDefault:"info" validate:"oneof=silent error warn info debug"`
	Format string `env:"FORMAT" envDefault:"text" validate:"oneof=text json"`
	Path   string `env:"PATH"`
}

type Configuration struct {
	Database   DatabaseOptions `envPrefix:"DB_"`
	CopySource DatabaseOptions `envPrefix:"COPY_SOURCE_"`
	Log        LogOptions      `envPrefix:"LOG_"`

	DataDir         string `env:"DATA_DIR" envDefault:"data"`
	SourcesManifest string `env:"SOURCES_MANIFEST"`
	AutoMigrate     bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	MetricsFile     string `env:"METRICS_FILE"`

	logFile *os.File
	logger  *logrus.Logger
}

// LoadEnv loads the env files that exist and reports how many were found.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads env files, parses the environment and builds the logger.
func Load(envFiles ...string) (*Configuration, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, errors.Wrap(err, "load env files")
	}

	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	f, logger, err := NewLogger(c.Log)
	if err != nil {
		return nil, err
	}
	c.logFile = f
	c.logger = logger
	return c, nil
}

var validate = validator.New()

func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

func (c *Configuration) Logger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	return c.logger
}

// Unload closes the log file, if any.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		_ = c.logFile.Close()
		c.logFile = nil
	}
}
