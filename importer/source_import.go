// Package importer reconciles yearly CSV exports into the relational store.
package importer

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/observatorio/mcerdb/models"
)

// Store is everything one source import needs, usually a *store.Tx.
type Store interface {
	DimensionStore
	PersonStore
	EnrollmentStore
	AttendanceStore
}

// RequiredFields returns the fields a source of kind cannot be imported without.
func RequiredFields(kind Kind) []Field {
	switch kind {
	case KindInstitutions:
		return []Field{FieldInstitution}
	case KindAttendance:
		return []Field{FieldDocumentNumber, FieldSession}
	default:
		return []Field{FieldDocumentNumber}
	}
}

type unit struct {
	st       Store
	src      Source
	resolver *Resolver
	matcher  *Matcher
	upserter *Upserter
	stats    *Stats
	log      *logrus.Entry
}

// ImportSource reads one CSV and writes it through st. Row problems are counted
// in the returned Stats; any other error means the caller must roll back.
func ImportSource(ctx context.Context, st Store, src Source, r io.Reader, aliases AliasTable, log *logrus.Entry) (*Stats, error) {
	started := time.Now()
	u := &unit{
		st:       st,
		src:      src,
		resolver: NewResolver(st),
		matcher:  NewMatcher(st),
		upserter: NewUpserter(st, st),
		stats:    NewStats(src.Name),
		log:      log,
	}

	cr, err := NewCSVReader(r, src.Delimiter, src.Encoding)
	if err != nil {
		return u.stats, err
	}
	header, err := readHeader(cr)
	if err != nil {
		return u.stats, errors.Wrap(err, "read header")
	}
	required := RequiredFields(src.Kind)
	headers, err := ResolveHeaders(header, aliases, required)
	if err != nil {
		return u.stats, err
	}
	log.WithField("columns", len(headers)).Debug("headers resolved")
	normalizer := NewNormalizer(headers, required, src.Year, src.DefaultCourse)

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return u.stats, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return u.stats, errors.Wrapf(err, "line %d", line)
		}
		if blankRow(row) {
			continue
		}
		u.stats.RowsRead++

		rec, err := normalizer.Normalize(line, row)
		if err == nil {
			err = u.importRecord(ctx, rec)
		}
		var skip *RowSkippedError
		var conflict *PersonConflictError
		switch {
		case err == nil:
		case errors.As(err, &skip):
			u.stats.Skip(skip.Reason)
			log.WithField("line", line).Debug(skip.Error())
		case errors.As(err, &conflict):
			u.stats.PersonConflicts++
			u.stats.Skip(ReasonPersonConflict)
			log.WithField("line", line).Warn(conflict.Error())
		default:
			return u.stats, errors.Wrapf(err, "line %d", line)
		}
	}

	u.stats.DimensionsCreated = u.resolver.Created()
	u.stats.Duration = time.Since(started)
	return u.stats, nil
}

func (u *unit) importRecord(ctx context.Context, rec Record) error {
	switch u.src.Kind {
	case KindInstitutions:
		_, err := u.resolver.Resolve(ctx, models.DimensionInstitution, rec.Institution)
		return err
	case KindPersons:
		_, err := u.person(ctx, rec)
		return err
	case KindEnrollment:
		return u.enrollment(ctx, rec)
	case KindAttendance:
		return u.attendance(ctx, rec)
	default:
		return errors.Errorf("unknown source kind %q", u.src.Kind)
	}
}

func (u *unit) person(ctx context.Context, rec Record) (int64, error) {
	docType, err := u.resolver.Resolve(ctx, models.DimensionDocumentType, rec.DocumentType)
	if err != nil {
		return 0, err
	}
	city, err := u.resolver.Resolve(ctx, models.DimensionCity, rec.City)
	if err != nil {
		return 0, err
	}
	id, outcome, err := u.matcher.MatchOrCreate(ctx, models.Person{
		DocumentTypeID: docType,
		DocumentNumber: rec.DocumentNumber,
		FullName:       rec.FullName,
		Sex:            rec.Sex,
		BirthDate:      rec.BirthDate,
		Email:          rec.Email,
		Phone:          rec.Phone,
		Address:        rec.Address,
		CityID:         city,
		PopulationType: rec.PopulationType,
	})
	if err != nil {
		return 0, err
	}
	u.stats.addPerson(outcome)
	return id, nil
}

func (u *unit) enrollment(ctx context.Context, rec Record) error {
	if rec.Year == 0 {
		return &RowSkippedError{Line: rec.Line, Reason: ReasonMissingYear}
	}
	personID, err := u.person(ctx, rec)
	if err != nil {
		return err
	}
	course, err := u.resolver.Resolve(ctx, models.DimensionCourse, rec.Course)
	if err != nil {
		return err
	}
	level, err := u.resolver.Resolve(ctx, models.DimensionMCERLevel, rec.MCERLevel)
	if err != nil {
		return err
	}
	institution, err := u.resolver.Resolve(ctx, models.DimensionInstitution, rec.Institution)
	if err != nil {
		return err
	}

	outcome, err := u.upserter.UpsertEnrollment(ctx, models.Enrollment{
		PersonID:      personID,
		Year:          rec.Year,
		CourseID:      course,
		CourseName:    nullString(rec.Course),
		Grade:         rec.Grade,
		MCERLevelID:   level,
		InstitutionID: institution,
		Status:        rec.Status,
	})
	u.stats.Enrollments[outcome]++
	return err
}

func (u *unit) attendance(ctx context.Context, rec Record) error {
	if rec.Year == 0 {
		return &RowSkippedError{Line: rec.Line, Reason: ReasonMissingYear}
	}
	personID, err := u.person(ctx, rec)
	if err != nil {
		return err
	}
	course, err := u.resolver.Resolve(ctx, models.DimensionCourse, rec.Course)
	if err != nil {
		return err
	}
	institution, err := u.resolver.Resolve(ctx, models.DimensionInstitution, rec.Institution)
	if err != nil {
		return err
	}

	outcome, err := u.upserter.UpsertAttendance(ctx, models.Attendance{
		PersonID:      personID,
		InstitutionID: institution,
		CourseID:      course,
		Year:          rec.Year,
		Session:       rec.Session,
		Value:         rec.Attendance,
	})
	u.stats.Attendance[outcome]++
	return err
}
