package importer

import (
	"fmt"
	"strings"

	"github.com/observatorio/mcerdb/models"
)

// Skip reasons counted in Stats.SkippedByReason.
const (
	ReasonMissingYear     = "missing anio"
	ReasonPersonConflict  = "person conflict"
	ReasonUnknownDocument = "unknown document"
)

// RowSkippedError means a row cannot be imported and is counted, not fatal.
type RowSkippedError struct {
	Line   int
	Reason string
}

func (e *RowSkippedError) Error() string {
	return fmt.Sprintf("line %d skipped: %s", e.Line, e.Reason)
}

// DimensionResolutionError aborts the source: the store failed while resolving a lookup value.
type DimensionResolutionError struct {
	Kind  models.DimensionKind
	Value string
	Err   error
}

func (e *DimensionResolutionError) Error() string {
	return fmt.Sprintf("resolve %s %q: %v", e.Kind, e.Value, e.Err)
}

func (e *DimensionResolutionError) Unwrap() error { return e.Err }

// PersonConflictError reports a document number shared by more than one stored person.
type PersonConflictError struct {
	Document string
	IDs      []int64
}

func (e *PersonConflictError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("document %q matches %d persons (%s)", e.Document, len(e.IDs), strings.Join(ids, ", "))
}

// SourceImportError wraps whatever made a whole source fail.
type SourceImportError struct {
	Source string
	Err    error
}

func (e *SourceImportError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceImportError) Unwrap() error { return e.Err }

// MissingColumnsError lists required fields no header resolved to, with near matches.
type MissingColumnsError struct {
	Missing     []Field
	Suggestions map[Field][]string
}

func (e *MissingColumnsError) Error() string {
	var b strings.Builder
	b.WriteString("missing required columns:")
	for _, f := range e.Missing {
		fmt.Fprintf(&b, " %s", f)
		if s := e.Suggestions[f]; len(s) > 0 {
			fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(quoteAll(s), " or "))
		}
	}
	return b.String()
}

func quoteAll(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
