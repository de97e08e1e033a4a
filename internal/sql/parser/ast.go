package parser

import "github.com/tuannm99/minidb/internal/record"

// Statement is the root interface for all parsed statements. The set is
// closed: CreateTableStmt, InsertStmt, SelectStmt, UpdateStmt, DeleteStmt
// and UnrecognizedStmt.
type Statement interface {
	stmtNode()
}

// ----- CREATE TABLE -----
type CreateTableStmt struct {
	TableName string
	Columns   []record.Column
}

func (*CreateTableStmt) stmtNode() {}

// ----- INSERT -----
type InsertStmt struct {
	TableName string
	Values    []string // raw literals, positional
}

func (*InsertStmt) stmtNode() {}

// ----- SELECT -----

// Wildcard is the projection that expands to every declared column.
const Wildcard = "*"

type SelectStmt struct {
	TableName string
	Columns   []string // []string{Wildcard} for SELECT *
	Where     *WhereClause
}

func (*SelectStmt) stmtNode() {}

// IsWildcard reports whether the projection is exactly "*".
func (s *SelectStmt) IsWildcard() bool {
	return len(s.Columns) == 1 && s.Columns[0] == Wildcard
}

// ----- UPDATE -----
type Assignment struct {
	Column  string
	Literal string
}

type UpdateStmt struct {
	TableName   string
	Assignments []Assignment
	Where       *WhereClause
}

func (*UpdateStmt) stmtNode() {}

// ----- DELETE -----
type DeleteStmt struct {
	TableName string
	Where     *WhereClause
}

func (*DeleteStmt) stmtNode() {}

// ----- unparsable input -----
type UnrecognizedStmt struct {
	Text   string
	Reason string
}

func (*UnrecognizedStmt) stmtNode() {}

// ----- WHERE -----
type Operator uint8

const (
	OpEq Operator = iota + 1
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
)

var operators = map[string]Operator{
	"=":  OpEq,
	"!=": OpNe,
	"<":  OpLt,
	">":  OpGt,
	"<=": OpLe,
	">=": OpGe,
}

func ParseOperator(s string) (Operator, bool) {
	op, ok := operators[s]
	return op, ok
}

func (o Operator) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	}
	return "?"
}

// WhereClause compares one column against a literal.
type WhereClause struct {
	Column  string
	Op      Operator
	Literal string
}
