package importer

import (
	"fmt"
	"strings"
)

// ParseError aborts a whole import: the input could not be read or it lacks
// required columns. No record of the batch is applied.
type ParseError struct {
	Reason   string
	Found    []string
	Required []string
	Missing  []string
	Err      error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse import: ")
	b.WriteString(e.Reason)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing %s; found columns [%s]; required [%s]",
			strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "), strings.Join(e.Required, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// RowError explains why a data row was skipped. Row is 1-based over data rows.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
