package importer

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Kind selects how the rows of a source are imported.
type Kind string

const (
	KindPersons      Kind = "persons"
	KindInstitutions Kind = "institutions"
	KindEnrollment   Kind = "enrollment"
	KindAttendance   Kind = "attendance"
)

// Source is one CSV export and how to read it.
type Source struct {
	Name          string     `yaml:"name" validate:"required"`
	Kind          Kind       `yaml:"kind" validate:"oneof=persons institutions enrollment attendance"`
	File          string     `yaml:"file" validate:"required"`
	Year          int        `yaml:"year" validate:"omitempty,gte=1990,lte=2100"`
	DefaultCourse string     `yaml:"default_course"`
	Delimiter     string     `yaml:"delimiter"`
	Encoding      string     `yaml:"encoding"`
	Aliases       AliasTable `yaml:"aliases"`
}

// Path resolves File against dir unless it is absolute.
func (s Source) Path(dir string) string {
	if filepath.IsAbs(s.File) {
		return s.File
	}
	return filepath.Join(dir, s.File)
}

// Manifest declares every source in import order.
type Manifest struct {
	Version          int              `yaml:"version" validate:"gte=1"`
	CourseCategories []CourseCategory `yaml:"course_categories" validate:"dive"`
	Aliases          AliasTable       `yaml:"aliases"`
	Sources          []Source         `yaml:"sources" validate:"required,dive"`
}

//go:embed sources.yaml
var defaultManifest []byte

var validate = validator.New()

// LoadManifest reads the manifest at path, or the built-in one when path is empty.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return ParseManifest(defaultManifest)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	return ParseManifest(data)
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parse manifest")
	}
	if err := validate.Struct(&m); err != nil {
		return nil, errors.Wrap(err, "invalid manifest")
	}
	seen := make(map[string]bool, len(m.Sources))
	for _, s := range m.Sources {
		if seen[s.Name] {
			return nil, fmt.Errorf("invalid manifest: duplicate source %q", s.Name)
		}
		seen[s.Name] = true
	}
	return &m, nil
}

// Select returns the named sources in declared order. No names means all of them.
func (m *Manifest) Select(names []string) ([]Source, error) {
	if len(names) == 0 {
		return m.Sources, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Source
	for _, s := range m.Sources {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown source %q", n)
	}
	return out, nil
}

// AliasesFor layers the source's aliases over the manifest's over the defaults.
func (m *Manifest) AliasesFor(src Source) AliasTable {
	return DefaultAliases().Merge(m.Aliases).Merge(src.Aliases)
}
