// Package eval evaluates WHERE clauses against stored rows.
//
// Comparison follows the tag of the stored cell, not the declared column
// type. Conditions that cannot be evaluated (missing column, literal that
// is not a number for an INTEGER cell, ordering operator on a TEXT cell)
// are false rather than errors.
package eval

import (
	"strconv"

	"github.com/tuannm99/minidb/internal/record"
	"github.com/tuannm99/minidb/internal/sql/parser"
)

// Evaluate reports whether row satisfies w.
func Evaluate(row record.Row, w *parser.WhereClause) bool {
	cell, ok := row[w.Column]
	if !ok {
		return false
	}

	switch v := cell.(type) {
	case record.Integer:
		lit, err := strconv.ParseInt(w.Literal, 10, 64)
		if err != nil {
			return false
		}
		return compareInt(int64(v), w.Op, lit)
	case record.Text:
		lit := record.Unquote(w.Literal)
		switch w.Op {
		case parser.OpEq:
			return string(v) == lit
		case parser.OpNe:
			return string(v) != lit
		case parser.OpLt, parser.OpGt, parser.OpLe, parser.OpGe:
			return false
		}
	}
	return false
}

func compareInt(a int64, op parser.Operator, b int64) bool {
	switch op {
	case parser.OpEq:
		return a == b
	case parser.OpNe:
		return a != b
	case parser.OpLt:
		return a < b
	case parser.OpGt:
		return a > b
	case parser.OpLe:
		return a <= b
	case parser.OpGe:
		return a >= b
	}
	return false
}

// Predicate turns an optional WHERE clause into a row filter. A nil clause
// matches every row.
func Predicate(w *parser.WhereClause) func(record.Row) bool {
	if w == nil {
		return func(record.Row) bool { return true }
	}
	return func(row record.Row) bool { return Evaluate(row, w) }
}
