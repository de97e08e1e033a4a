package executor

import (
	"strings"
	"unicode/utf8"
)

// Kind classifies the outcome of one statement.
type Kind string

const (
	KindCreated       Kind = "created"
	KindAlreadyExists Kind = "already_exists"
	KindInserted      Kind = "inserted"
	KindInsertError   Kind = "insert_error"
	KindSelected      Kind = "selected"
	KindUpdated       Kind = "updated"
	KindUpdateError   Kind = "update_error"
	KindDeleted       Kind = "deleted"
	KindSyntaxError   Kind = "syntax_error"
	KindTableNotFound Kind = "table_not_found"
)

// Result is the report returned to the caller for every statement.
// Failures are reported here, never as Go errors.
type Result struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`

	// For SELECT:
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`

	// For DML:
	AffectedRows int64 `json:"affected_rows"`

	// Field-level problems that did not stop the statement.
	Warnings []string `json:"warnings,omitempty"`
}

// Failed reports whether the statement was rejected.
func (r *Result) Failed() bool {
	switch r.Kind {
	case KindAlreadyExists, KindInsertError, KindUpdateError, KindSyntaxError, KindTableNotFound:
		return true
	case KindCreated, KindInserted, KindSelected, KindUpdated, KindDeleted:
		return false
	}
	return true
}

// String renders the result for a terminal.
func (r *Result) String() string {
	if len(r.Warnings) == 0 {
		return r.Detail
	}
	var b strings.Builder
	b.WriteString(r.Detail)
	for _, w := range r.Warnings {
		b.WriteString("\nwarning: ")
		b.WriteString(w)
	}
	return b.String()
}

// renderTable lays rows out in left-justified columns. Each column is as
// wide as its header or its longest cell, plus two.
func renderTable(cols []string, rows [][]string) string {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range rows {
		for i, s := range row {
			if n := utf8.RuneCountInString(s); n > widths[i] {
				widths[i] = n
			}
		}
	}

	lines := make([]string, 0, len(rows)+2)
	line := func(values []string) string {
		var b strings.Builder
		for i := range cols {
			b.WriteString(padRight(values[i], widths[i]+2))
		}
		return b.String()
	}

	lines = append(lines, line(cols))
	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w+2))
	}
	lines = append(lines, sep.String())
	for _, row := range rows {
		lines = append(lines, line(row))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}
