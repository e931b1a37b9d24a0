package importer

import (
	"strings"
)

const (
	CategoryOther    = "otro"
	CategoryNoCourse = "sin_curso"
)

// CourseCategory groups free-text course names by substring patterns.
type CourseCategory struct {
	Name     string   `yaml:"name" validate:"required"`
	Patterns []string `yaml:"patterns" validate:"required,min=1"`
}

// Classifier assigns a course name to the first category with a matching pattern.
// The taxonomy is open: unmatched names fall into CategoryOther.
type Classifier struct {
	categories []CourseCategory
}

func NewClassifier(categories []CourseCategory) *Classifier {
	c := &Classifier{categories: make([]CourseCategory, len(categories))}
	for i, cat := range categories {
		patterns := make([]string, len(cat.Patterns))
		for j, p := range cat.Patterns {
			patterns[j] = foldCourse(p)
		}
		c.categories[i] = CourseCategory{Name: cat.Name, Patterns: patterns}
	}
	return c
}

func foldCourse(s string) string {
	return strings.ToLower(foldHeader(s))
}

func (c *Classifier) Classify(course string) string {
	name := foldCourse(course)
	if name == "" {
		return CategoryNoCourse
	}
	for _, cat := range c.categories {
		for _, p := range cat.Patterns {
			if strings.Contains(name, p) {
				return cat.Name
			}
		}
	}
	return CategoryOther
}
