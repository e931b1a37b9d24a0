// Package report renders read-only views of the store and run summaries.
package report

import (
	"context"
	"sort"

	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/models"
	"github.com/observatorio/mcerdb/store"
)

type CategoryCount struct {
	Category    string
	Courses     int
	Enrollments int
}

// Dashboard is the data behind the report command.
type Dashboard struct {
	Year       int
	PerYear    []store.YearCount
	Coverage   []store.CourseCoverage
	Categories []CategoryCount
	Runs       []models.ImportRun
}

// Build queries the store. year 0 means every year for the category breakdown.
func Build(ctx context.Context, db *store.DB, classifier *importer.Classifier, year int) (*Dashboard, error) {
	d := &Dashboard{Year: year}
	var err error
	if d.PerYear, err = db.EnrollmentsPerYear(ctx); err != nil {
		return nil, err
	}
	if d.Coverage, err = db.CourseNameCoverage(ctx); err != nil {
		return nil, err
	}
	perCourse, err := db.EnrollmentsPerCourse(ctx, year)
	if err != nil {
		return nil, err
	}
	d.Categories = Categorize(classifier, perCourse)
	if d.Runs, err = db.LastRuns(ctx, 5); err != nil {
		return nil, err
	}
	return d, nil
}

// Categorize folds per-course counts into categories, largest first.
func Categorize(classifier *importer.Classifier, perCourse []store.CourseCount) []CategoryCount {
	byName := make(map[string]*CategoryCount)
	for _, c := range perCourse {
		name := classifier.Classify(c.Course)
		cc, ok := byName[name]
		if !ok {
			cc = &CategoryCount{Category: name}
			byName[name] = cc
		}
		cc.Courses++
		cc.Enrollments += c.Enrollments
	}
	out := make([]CategoryCount, 0, len(byName))
	for _, cc := range byName {
		out = append(out, *cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Enrollments != out[j].Enrollments {
			return out[i].Enrollments > out[j].Enrollments
		}
		return out[i].Category < out[j].Category
	})
	return out
}
