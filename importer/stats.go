package importer

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/observatorio/mcerdb/models"
)

// Stats are the counters of one source import.
type Stats struct {
	Source   string
	Duration time.Duration

	RowsRead        int
	RowsSkipped     int
	SkippedByReason map[string]int

	PersonsCreated  int
	PersonsUpdated  int
	PersonConflicts int

	DimensionsCreated map[models.DimensionKind]int
	Enrollments       map[Outcome]int
	Attendance        map[Outcome]int
}

func NewStats(source string) *Stats {
	return &Stats{
		Source:            source,
		SkippedByReason:   make(map[string]int),
		DimensionsCreated: make(map[models.DimensionKind]int),
		Enrollments:       make(map[Outcome]int),
		Attendance:        make(map[Outcome]int),
	}
}

func (s *Stats) Skip(reason string) {
	s.RowsSkipped++
	s.SkippedByReason[reason]++
}

func (s *Stats) addPerson(o PersonOutcome) {
	switch o {
	case PersonCreated:
		s.PersonsCreated++
	case PersonUpdated:
		s.PersonsUpdated++
	}
}

// Changed is the number of rows inserted or updated. A re-import of the same file reports 0.
func (s *Stats) Changed() int {
	n := s.PersonsCreated + s.PersonsUpdated
	for _, c := range s.DimensionsCreated {
		n += c
	}
	n += s.Enrollments[Inserted] + s.Enrollments[UpdatedBackfill]
	n += s.Attendance[Inserted] + s.Attendance[UpdatedBackfill]
	return n
}

// Counts flattens the counters into outcome labels, skipping zeros.
func (s *Stats) Counts() map[string]int {
	out := map[string]int{
		"read":             s.RowsRead,
		"skipped":          s.RowsSkipped,
		"person_created":   s.PersonsCreated,
		"person_updated":   s.PersonsUpdated,
		"person_conflict":  s.PersonConflicts,
		"dimension_create": 0,
	}
	for _, c := range s.DimensionsCreated {
		out["dimension_create"] += c
	}
	for o, c := range s.Enrollments {
		out["enrollment_"+o.String()] += c
	}
	for o, c := range s.Attendance {
		out["attendance_"+o.String()] += c
	}
	for k, v := range out {
		if v == 0 {
			delete(out, k)
		}
	}
	return out
}

// Log writes the counters as one structured entry.
func (s *Stats) Log(log *logrus.Entry) {
	fields := logrus.Fields{"changed": s.Changed(), "duration": s.Duration.Round(time.Millisecond).String()}
	keys := make([]string, 0)
	counts := s.Counts()
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields[k] = counts[k]
	}
	log.WithFields(fields).Info("source imported")
	for reason, n := range s.SkippedByReason {
		log.WithFields(logrus.Fields{"reason": reason, "rows": n}).Warn("rows skipped")
	}
}
