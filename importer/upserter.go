package importer

import (
	"context"
	"database/sql"

	"github.com/observatorio/mcerdb/models"
)

type EnrollmentStore interface {
	FindEnrollments(ctx context.Context, personID int64, year int) ([]models.Enrollment, error)
	InsertEnrollment(ctx context.Context, e models.Enrollment) (int64, error)
	UpdateEnrollmentFields(ctx context.Context, id int64, fields map[string]interface{}) error
}

type AttendanceStore interface {
	FindAttendance(ctx context.Context, a models.Attendance) (*models.Attendance, error)
	InsertAttendance(ctx context.Context, a models.Attendance) (int64, error)
	UpdateAttendanceFields(ctx context.Context, id int64, fields map[string]interface{}) error
}

// Outcome is the result of writing one fact row.
type Outcome int

const (
	Inserted Outcome = iota
	UpdatedBackfill
	Skipped
	Failed
	// NotFound is only returned by BackfillCourseName.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case UpdatedBackfill:
		return "updated_backfill"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Upserter writes fact rows without ever overwriting a populated column.
type Upserter struct {
	enrollments     EnrollmentStore
	attendance      AttendanceStore
	courseConflicts int
}

func NewUpserter(enrollments EnrollmentStore, attendance AttendanceStore) *Upserter {
	return &Upserter{enrollments: enrollments, attendance: attendance}
}

// CourseConflicts counts backfill rows skipped because (person, year) only has other courses.
func (u *Upserter) CourseConflicts() int { return u.courseConflicts }

func courseOf(e models.Enrollment) string {
	if !e.CourseName.Valid {
		return ""
	}
	return normalizeCourse(e.CourseName.String)
}

// enrollmentTarget picks the stored row an incoming enrollment belongs to, or nil.
// conflict is set when rows exist but all carry another course name; an upsert
// inserts in that case, a backfill skips.
func enrollmentTarget(rows []models.Enrollment, course string) (target *models.Enrollment, conflict bool) {
	if len(rows) == 0 {
		return nil, false
	}
	if course == "" {
		return &rows[0], false
	}
	for i := range rows {
		if courseOf(rows[i]) == course {
			return &rows[i], false
		}
	}
	for i := range rows {
		if courseOf(rows[i]) == "" {
			return &rows[i], false
		}
	}
	return nil, true
}

// UpsertEnrollment inserts e or fills the null columns of the row it matches.
func (u *Upserter) UpsertEnrollment(ctx context.Context, e models.Enrollment) (Outcome, error) {
	if e.CourseName.Valid {
		e.CourseName = nullString(normalizeCourse(e.CourseName.String))
	}
	rows, err := u.enrollments.FindEnrollments(ctx, e.PersonID, e.Year)
	if err != nil {
		return Failed, err
	}

	target, _ := enrollmentTarget(rows, courseOf(e))
	if target == nil {
		if _, err := u.enrollments.InsertEnrollment(ctx, e); err != nil {
			return Failed, err
		}
		return Inserted, nil
	}

	fields := make(map[string]interface{})
	fillInt(fields, "curso_id", &target.CourseID, e.CourseID)
	fillString(fields, "nombre_curso", &target.CourseName, e.CourseName)
	if !target.Grade.Valid && e.Grade.Valid {
		fields["nota"] = e.Grade
	}
	fillInt(fields, "nivel_mcer_id", &target.MCERLevelID, e.MCERLevelID)
	fillInt(fields, "institucion_id", &target.InstitutionID, e.InstitutionID)
	fillString(fields, "estado", &target.Status, e.Status)
	return u.apply(ctx, target.ID, fields, u.enrollments.UpdateEnrollmentFields)
}

// BackfillCourseName sets nombre_curso on an existing (person, year) row whose
// course name is empty. It never inserts. resolveCourse is only called when the
// target row still lacks a course id.
func (u *Upserter) BackfillCourseName(ctx context.Context, personID int64, year int, course string,
	resolveCourse func(context.Context) (sql.NullInt64, error)) (Outcome, error) {
	course = normalizeCourse(course)
	rows, err := u.enrollments.FindEnrollments(ctx, personID, year)
	if err != nil {
		return Failed, err
	}
	if len(rows) == 0 {
		return NotFound, nil
	}
	target, conflict := enrollmentTarget(rows, course)
	if conflict {
		u.courseConflicts++
		return Skipped, nil
	}

	fields := make(map[string]interface{})
	fillString(fields, "nombre_curso", &target.CourseName, nullString(course))
	if !target.CourseID.Valid && course != "" {
		courseID, err := resolveCourse(ctx)
		if err != nil {
			return Failed, err
		}
		fillInt(fields, "curso_id", &target.CourseID, courseID)
	}
	return u.apply(ctx, target.ID, fields, u.enrollments.UpdateEnrollmentFields)
}

// UpsertAttendance is keyed by (person, institution, course, year, session).
func (u *Upserter) UpsertAttendance(ctx context.Context, a models.Attendance) (Outcome, error) {
	existing, err := u.attendance.FindAttendance(ctx, a)
	if err != nil {
		return Failed, err
	}
	if existing == nil {
		if _, err := u.attendance.InsertAttendance(ctx, a); err != nil {
			return Failed, err
		}
		return Inserted, nil
	}
	fields := make(map[string]interface{})
	fillString(fields, "asistencia", &existing.Value, a.Value)
	return u.apply(ctx, existing.ID, fields, u.attendance.UpdateAttendanceFields)
}

func (u *Upserter) apply(ctx context.Context, id int64, fields map[string]interface{},
	update func(context.Context, int64, map[string]interface{}) error) (Outcome, error) {
	if len(fields) == 0 {
		return Skipped, nil
	}
	if err := update(ctx, id, fields); err != nil {
		return Failed, err
	}
	return UpdatedBackfill, nil
}
