package importer

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// nullTokens are cell values treated as missing, compared after foldHeader.
var nullTokens = map[string]bool{
	"":         true,
	"NULL":     true,
	"N/A":      true,
	"NA":       true,
	"-":        true,
	"NAN":      true,
	"NONE":     true,
	"SIN DATO": true,
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"2006/01/02",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	time.RFC3339,
}

// Record is one CSV row after normalization. Dimension values stay as text until resolved.
type Record struct {
	Line int

	DocumentType   string
	DocumentNumber string
	FullName       sql.NullString
	Sex            sql.NullString
	BirthDate      sql.NullTime
	Email          sql.NullString
	Phone          sql.NullString
	Address        sql.NullString
	City           string
	PopulationType sql.NullString

	Institution string
	Course      string
	Grade       decimal.NullDecimal
	MCERLevel   string
	Status      sql.NullString
	Year        int

	Session    string
	Attendance sql.NullString
}

// Normalizer turns raw rows of one file into Records.
type Normalizer struct {
	headers     HeaderMap
	required    []Field
	defaultYear int
	course      string
}

// NewNormalizer builds a normalizer for a file whose headers were resolved to headers.
// Rows with a null required field are skipped. defaultYear and defaultCourse fill
// the year and course when the row carries none.
func NewNormalizer(headers HeaderMap, required []Field, defaultYear int, defaultCourse string) *Normalizer {
	return &Normalizer{
		headers:     headers,
		required:    required,
		defaultYear: defaultYear,
		course:      normalizeCourse(defaultCourse),
	}
}

func (n *Normalizer) cell(row []string, f Field) string {
	v := collapse(n.headers.Value(row, f))
	if nullTokens[foldHeader(v)] {
		return ""
	}
	return v
}

// Normalize applies the per-field rules. It returns *RowSkippedError when a required field is null.
func (n *Normalizer) Normalize(line int, row []string) (Record, error) {
	for _, f := range n.required {
		if n.cell(row, f) == "" {
			return Record{}, &RowSkippedError{Line: line, Reason: "missing " + string(f)}
		}
	}

	rec := Record{
		Line:           line,
		DocumentType:   strings.ToUpper(n.cell(row, FieldDocumentType)),
		DocumentNumber: n.cell(row, FieldDocumentNumber),
		FullName:       nullString(strings.ToUpper(n.cell(row, FieldFullName))),
		Sex:            normalizeSex(n.cell(row, FieldSex)),
		BirthDate:      parseDate(n.cell(row, FieldBirthDate)),
		Email:          nullString(strings.ToLower(n.cell(row, FieldEmail))),
		Phone:          nullString(n.cell(row, FieldPhone)),
		Address:        nullString(strings.ToUpper(n.cell(row, FieldAddress))),
		City:           strings.ToUpper(n.cell(row, FieldCity)),
		PopulationType: nullString(strings.ToUpper(n.cell(row, FieldPopulationType))),
		Institution:    strings.ToUpper(n.cell(row, FieldInstitution)),
		Course:         normalizeCourse(n.cell(row, FieldCourse)),
		Grade:          parseGrade(n.cell(row, FieldGrade)),
		MCERLevel:      strings.ToUpper(n.cell(row, FieldMCERLevel)),
		Status:         nullString(strings.ToUpper(n.cell(row, FieldStatus))),
		Year:           parseYear(n.cell(row, FieldYear)),
		Session:        n.cell(row, FieldSession),
		Attendance:     nullString(strings.ToUpper(n.cell(row, FieldAttendance))),
	}
	if rec.Year == 0 {
		rec.Year = n.defaultYear
	}
	if rec.Course == "" {
		rec.Course = n.course
	}
	return rec, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// normalizeCourse lower-cases and trims course names so later pattern matching is consistent.
func normalizeCourse(s string) string {
	return strings.ToLower(collapse(s))
}

func normalizeSex(s string) sql.NullString {
	switch foldHeader(s) {
	case "M", "MASCULINO", "HOMBRE", "H":
		return nullString("M")
	case "F", "FEMENINO", "MUJER":
		return nullString("F")
	default:
		return sql.NullString{}
	}
}

func parseDate(s string) sql.NullTime {
	if s == "" {
		return sql.NullTime{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: t, Valid: true}
		}
	}
	return sql.NullTime{}
}

// parseGrade accepts both "4.5" and "4,5".
func parseGrade(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseYear(s string) int {
	if len(s) < 4 {
		return 0
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y
	}
	// "2023-1", "2023.0"
	if y, err := strconv.Atoi(s[:4]); err == nil {
		return y
	}
	return 0
}
