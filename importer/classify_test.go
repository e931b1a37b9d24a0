package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)
	c := NewClassifier(m.CourseCategories)

	cases := map[string]string{
		"intensificacion sabados":   "sabados",
		"INTENSIFICACIÓN SÁBADOS":   "sabados",
		"intensificacion":           "intensificacion",
		"curso intensivo de ingles": "intensificacion",
		"colombo americano":         "colombo",
		"Escuela Nueva 2020":        "escuela_nueva",
		"formacion docentes":        "docentes",
		"ingles conversacional":     CategoryOther,
		"":                          CategoryNoCourse,
	}
	for course, want := range cases {
		assert.Equal(t, want, c.Classify(course), course)
	}
}
