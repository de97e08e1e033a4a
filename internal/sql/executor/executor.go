package executor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tuannm99/minidb/internal/engine"
	"github.com/tuannm99/minidb/internal/record"
	"github.com/tuannm99/minidb/internal/sql/eval"
	"github.com/tuannm99/minidb/internal/sql/parser"
	"github.com/tuannm99/minidb/internal/sql/planner"
)

// Executor runs statements against a Database. It is not safe for
// concurrent use.
type Executor struct {
	db *engine.Database

	// atomicUpdate makes UPDATE all-or-nothing per statement: if any SET
	// clause is invalid no row is touched.
	atomicUpdate bool
}

type Option func(*Executor)

func WithAtomicUpdate(on bool) Option {
	return func(e *Executor) { e.atomicUpdate = on }
}

func NewExecutor(db *engine.Database, opts ...Option) *Executor {
	e := &Executor{db: db}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) DB() *engine.Database { return e.db }

// ExecSQL parses and executes one statement.
func (e *Executor) ExecSQL(sql string) *Result {
	return e.Execute(parser.Parse(sql))
}

// ExecScript executes every statement of a script in order and returns one
// result per statement, unrecognized ones included.
func (e *Executor) ExecScript(script string) []*Result {
	var out []*Result
	for stmt := range parser.ParseScript(script) {
		out = append(out, e.Execute(stmt))
	}
	return out
}

// Execute runs a parsed statement.
func (e *Executor) Execute(stmt parser.Statement) *Result {
	if u, ok := stmt.(*parser.UnrecognizedStmt); ok {
		slog.Debug("executor: syntax error", "sql", u.Text, "reason", u.Reason)
		return &Result{Kind: KindSyntaxError, Detail: "syntax error: " + u.Reason}
	}

	plan, err := planner.BuildPlan(stmt, e.db)
	if err != nil {
		if errors.Is(err, engine.ErrTableNotFound) {
			return tableNotFound(tableOf(stmt))
		}
		return &Result{Kind: KindSyntaxError, Detail: err.Error()}
	}

	res := e.execPlan(plan)
	slog.Debug("executor: statement done", "kind", res.Kind, "affected", res.AffectedRows)
	return res
}

func (e *Executor) execPlan(p planner.Plan) *Result {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SeqScanPlan:
		return e.execSeqScan(plan)
	case *planner.UpdatePlan:
		return e.execUpdate(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)
	default:
		return &Result{Kind: KindSyntaxError, Detail: fmt.Sprintf("executor: unsupported plan type %T", p)}
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) *Result {
	if _, err := e.db.CreateTable(p.TableName, p.Schema); err != nil {
		return &Result{Kind: KindAlreadyExists, Detail: fmt.Sprintf("table '%s' already exists", p.TableName)}
	}
	return &Result{Kind: KindCreated, Detail: fmt.Sprintf("table '%s' created", p.TableName)}
}

func (e *Executor) execInsert(p *planner.InsertPlan) *Result {
	if len(p.Values) != p.Schema.NumCols() {
		return &Result{
			Kind: KindInsertError,
			Detail: fmt.Sprintf("table '%s' has %d columns but %d values were given",
				p.TableName, p.Schema.NumCols(), len(p.Values)),
		}
	}

	// Coerce everything first: a bad value leaves no partial row behind.
	row := make(record.Row, len(p.Values))
	for i, col := range p.Schema.Cols {
		v, err := record.Coerce(col.Type, p.Values[i])
		if err != nil {
			return &Result{
				Kind:   KindInsertError,
				Detail: fmt.Sprintf("value %s is not a valid %s for column '%s'", p.Values[i], col.Type, col.Name),
			}
		}
		row[col.Name] = v
	}

	if err := e.db.Insert(p.TableName, row); err != nil {
		return tableNotFound(p.TableName)
	}
	return &Result{Kind: KindInserted, Detail: "1 row inserted", AffectedRows: 1}
}

func (e *Executor) execSeqScan(p *planner.SeqScanPlan) *Result {
	tbl, err := e.db.OpenTable(p.TableName)
	if err != nil {
		return tableNotFound(p.TableName)
	}

	match := eval.Predicate(p.Where)
	res := &Result{Kind: KindSelected, Columns: p.Columns}

	_ = tbl.Scan(func(_ int, row record.Row) error {
		if !match(row) {
			return nil
		}
		out := make([]string, len(p.Columns))
		for i, c := range p.Columns {
			// unknown or missing columns stay blank
			if v, ok := row[c]; ok {
				out[i] = v.String()
			}
		}
		res.Rows = append(res.Rows, out)
		return nil
	})

	res.AffectedRows = int64(len(res.Rows))
	res.Detail = renderTable(res.Columns, res.Rows)
	return res
}

type setValue struct {
	column string
	value  record.Value
}

func (e *Executor) execUpdate(p *planner.UpdatePlan) *Result {
	// Coercion does not depend on the row, so resolve every clause once.
	var (
		sets     []setValue
		problems []string
	)
	for _, a := range p.Assigns {
		col, ok := p.Schema.Column(a.Column)
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown column '%s'", a.Column))
			continue
		}
		v, err := record.Coerce(col.Type, a.Literal)
		if err != nil {
			problems = append(problems,
				fmt.Sprintf("value %s is not a valid %s for column '%s'", a.Literal, col.Type, col.Name))
			continue
		}
		sets = append(sets, setValue{column: col.Name, value: v})
	}

	if e.atomicUpdate && len(problems) > 0 {
		return &Result{
			Kind:     KindUpdateError,
			Detail:   "0 rows updated",
			Warnings: problems,
		}
	}

	n, err := e.db.UpdateRows(p.TableName, eval.Predicate(p.Where), func(row record.Row) {
		for _, s := range sets {
			row[s.column] = s.value
		}
	})
	if err != nil {
		return tableNotFound(p.TableName)
	}

	res := &Result{
		Kind:         KindUpdated,
		Detail:       fmt.Sprintf("%d row(s) updated", n),
		AffectedRows: int64(n),
	}
	// Clause problems only surface when a row actually reached them.
	if n > 0 {
		for _, msg := range problems {
			slog.Warn("executor: update clause skipped", "table", p.TableName, "problem", msg)
		}
		res.Warnings = problems
	}
	return res
}

func (e *Executor) execDelete(p *planner.DeletePlan) *Result {
	n, err := e.db.DeleteRows(p.TableName, eval.Predicate(p.Where))
	if err != nil {
		return tableNotFound(p.TableName)
	}
	return &Result{
		Kind:         KindDeleted,
		Detail:       fmt.Sprintf("%d row(s) deleted", n),
		AffectedRows: int64(n),
	}
}

func tableNotFound(name string) *Result {
	return &Result{Kind: KindTableNotFound, Detail: fmt.Sprintf("table '%s' does not exist", name)}
}

func tableOf(stmt parser.Statement) string {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return s.TableName
	case *parser.InsertStmt:
		return s.TableName
	case *parser.SelectStmt:
		return s.TableName
	case *parser.UpdateStmt:
		return s.TableName
	case *parser.DeleteStmt:
		return s.TableName
	case *parser.UnrecognizedStmt:
		return ""
	}
	return ""
}
