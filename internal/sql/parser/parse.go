package parser

import (
	"fmt"
	"iter"
	"strings"

	"github.com/tuannm99/minidb/internal/record"
)

// Parse parses a single statement. It never fails: malformed input yields
// an *UnrecognizedStmt carrying the reason. Keywords are case-sensitive and
// the terminating ';' is optional.
func Parse(sql string) Statement {
	s := strings.TrimSpace(StripComments(sql))
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))

	toks := Tokenize(s)
	if len(toks) == 0 {
		return unrecognized(sql, "empty statement")
	}
	if hasTrailingStatement(s) {
		return unrecognized(sql, "more than one statement; run them one at a time")
	}

	switch toks[0] {
	case "CREATE":
		return parseCreateTable(sql, s)
	case "INSERT":
		return parseInsert(sql, s)
	case "SELECT":
		return parseSelect(sql, toks)
	case "UPDATE":
		return parseUpdate(sql, s)
	case "DELETE":
		return parseDelete(sql, s)
	default:
		return unrecognized(sql, "unsupported statement %q", toks[0])
	}
}

// ParseScript parses every statement of a script in order.
func ParseScript(script string) iter.Seq[Statement] {
	return func(yield func(Statement) bool) {
		for stmt := range Statements(script) {
			if !yield(Parse(stmt)) {
				return
			}
		}
	}
}

func unrecognized(sql, format string, args ...any) *UnrecognizedStmt {
	return &UnrecognizedStmt{
		Text:   strings.TrimSpace(sql),
		Reason: fmt.Sprintf(format, args...),
	}
}

// hasTrailingStatement reports whether an unquoted ';' is followed by
// more non-blank text.
func hasTrailingStatement(s string) bool {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote && strings.TrimSpace(s[i+1:]) != "" {
				return true
			}
		}
	}
	return false
}

// parenthesised returns the inside of "( ... )".
func parenthesised(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func parseCreateTable(sql, s string) Statement {
	// "CREATE TABLE users (id INTEGER, name TEXT)"
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return unrecognized(sql, "CREATE TABLE: missing column list")
	}

	head := strings.Fields(s[:open])
	if len(head) != 3 || head[1] != "TABLE" {
		return unrecognized(sql, "expected CREATE TABLE <name> (<column> <TYPE>, ...)")
	}
	name := head[2]
	if !isIdent(name) {
		return unrecognized(sql, "invalid table name %q", name)
	}

	inner, ok := parenthesised(s[open:])
	if !ok {
		return unrecognized(sql, "CREATE TABLE: column list must be enclosed in parentheses")
	}

	defs := SplitList(inner)
	if len(defs) == 0 {
		return unrecognized(sql, "CREATE TABLE: empty column list")
	}

	cols := make([]record.Column, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		toks := strings.Fields(def)
		if len(toks) != 2 {
			return unrecognized(sql, "invalid column definition %q", def)
		}
		if !isIdent(toks[0]) {
			return unrecognized(sql, "invalid column name %q", toks[0])
		}
		if _, dup := seen[toks[0]]; dup {
			return unrecognized(sql, "duplicate column %q", toks[0])
		}
		ct, err := record.ParseColumnType(toks[1])
		if err != nil {
			return unrecognized(sql, "unsupported column type %q", toks[1])
		}
		seen[toks[0]] = struct{}{}
		cols = append(cols, record.Column{Name: toks[0], Type: ct})
	}

	return &CreateTableStmt{
		TableName: name,
		Columns:   cols,
	}
}

func parseInsert(sql, s string) Statement {
	// "INSERT INTO users VALUES (1, 'abc')"
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return unrecognized(sql, "INSERT: missing value list")
	}

	head := strings.Fields(s[:open])
	if len(head) != 4 || head[1] != "INTO" || head[3] != "VALUES" {
		return unrecognized(sql, "expected INSERT INTO <name> VALUES (<value>, ...)")
	}
	name := head[2]
	if !isIdent(name) {
		return unrecognized(sql, "invalid table name %q", name)
	}

	inner, ok := parenthesised(s[open:])
	if !ok {
		return unrecognized(sql, "INSERT: value list must be enclosed in parentheses")
	}

	return &InsertStmt{
		TableName: name,
		Values:    SplitList(inner),
	}
}

func parseSelect(sql string, toks []string) Statement {
	// "SELECT * FROM users [WHERE col op literal]"
	from := -1
	for i := 1; i < len(toks); i++ {
		if toks[i] == "FROM" {
			from = i
			break
		}
	}
	if from < 2 {
		return unrecognized(sql, "expected SELECT <columns> FROM <table>")
	}
	if from+1 >= len(toks) {
		return unrecognized(sql, "SELECT: missing table name")
	}

	name := toks[from+1]
	if !isIdent(name) {
		return unrecognized(sql, "invalid table name %q", name)
	}

	cols := SplitList(strings.Join(toks[1:from], " "))
	for _, c := range cols {
		if c == "" {
			return unrecognized(sql, "SELECT: empty column in projection")
		}
	}

	stmt := &SelectStmt{TableName: name, Columns: cols}

	// WHERE takes exactly four tokens here: WHERE <col> <op> <literal>.
	rest := toks[from+2:]
	switch {
	case len(rest) == 0:
	case len(rest) == 4 && rest[0] == "WHERE":
		if !isIdent(rest[1]) {
			return unrecognized(sql, "invalid WHERE column %q", rest[1])
		}
		op, ok := ParseOperator(rest[2])
		if !ok {
			return unrecognized(sql, "unsupported operator %q", rest[2])
		}
		stmt.Where = &WhereClause{Column: rest[1], Op: op, Literal: rest[3]}
	default:
		return unrecognized(sql, "SELECT: expected WHERE <column> <op> <value> after table name")
	}

	return stmt
}

func parseUpdate(sql, s string) Statement {
	// "UPDATE t SET a=1, b='x' [WHERE id=1]"
	head, body, ok := cutKeyword(s, "SET")
	if !ok {
		return unrecognized(sql, "UPDATE: missing SET")
	}

	hf := strings.Fields(head)
	if len(hf) != 2 || hf[0] != "UPDATE" {
		return unrecognized(sql, "expected UPDATE <name> SET <column>=<value>, ...")
	}
	name := hf[1]
	if !isIdent(name) {
		return unrecognized(sql, "invalid table name %q", name)
	}

	setPart, cond, hasWhere := cutKeyword(body, "WHERE")
	items := SplitList(setPart)
	if len(items) == 0 {
		return unrecognized(sql, "UPDATE: missing assignments")
	}

	assigns := make([]Assignment, 0, len(items))
	for _, item := range items {
		col, lit, found := strings.Cut(item, "=")
		col = strings.TrimSpace(col)
		lit = strings.TrimSpace(lit)
		if !found || !isIdent(col) || lit == "" {
			return unrecognized(sql, "invalid assignment %q", item)
		}
		assigns = append(assigns, Assignment{Column: col, Literal: lit})
	}

	stmt := &UpdateStmt{TableName: name, Assignments: assigns}
	if hasWhere {
		w, reason := parseCondition(cond)
		if w == nil {
			return unrecognized(sql, "UPDATE: %s", reason)
		}
		stmt.Where = w
	}
	return stmt
}

func parseDelete(sql, s string) Statement {
	// "DELETE FROM t [WHERE col op literal]"
	head, cond, hasWhere := cutKeyword(s, "WHERE")

	hf := strings.Fields(head)
	if len(hf) != 3 || hf[1] != "FROM" {
		return unrecognized(sql, "expected DELETE FROM <name> [WHERE ...]")
	}
	name := hf[2]
	if !isIdent(name) {
		return unrecognized(sql, "invalid table name %q", name)
	}

	stmt := &DeleteStmt{TableName: name}
	if hasWhere {
		w, reason := parseCondition(cond)
		if w == nil {
			return unrecognized(sql, "DELETE: %s", reason)
		}
		stmt.Where = w
	}
	return stmt
}

// parseCondition parses "<col> <op> <literal>" with or without spaces
// around the operator.
func parseCondition(s string) (*WhereClause, string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			return nil, "condition must start with a column name"
		case '=', '!', '<', '>':
			n := 1
			if i+1 < len(s) && s[i+1] == '=' {
				n = 2
			}
			op, ok := ParseOperator(s[i : i+n])
			if !ok {
				return nil, fmt.Sprintf("unsupported operator %q", s[i:i+n])
			}

			col := strings.TrimSpace(s[:i])
			lit := strings.TrimSpace(s[i+n:])
			if !isIdent(col) {
				return nil, fmt.Sprintf("invalid WHERE column %q", col)
			}
			if lit == "" || strings.ContainsAny(lit[:1], "=!<>") {
				return nil, fmt.Sprintf("invalid WHERE value %q", lit)
			}
			return &WhereClause{Column: col, Op: op, Literal: lit}, ""
		}
	}
	return nil, "expected WHERE <column> <op> <value>"
}
