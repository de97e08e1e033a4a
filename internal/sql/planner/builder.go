package planner

import (
	"errors"
	"fmt"

	"github.com/tuannm99/minidb/internal/heap"
	"github.com/tuannm99/minidb/internal/record"
	"github.com/tuannm99/minidb/internal/sql/parser"
)

var ErrUnrecognized = errors.New("planner: unrecognized statement")

// Catalog resolves table names. *engine.Database satisfies it.
type Catalog interface {
	OpenTable(name string) (*heap.Table, error)
}

// BuildPlan resolves a statement against the catalog. Errors from the
// catalog (for example a missing table) are returned unchanged.
func BuildPlan(stmt parser.Statement, cat Catalog) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s), nil
	case *parser.InsertStmt:
		return buildInsertPlan(s, cat)
	case *parser.SelectStmt:
		return buildSelectPlan(s, cat)
	case *parser.UpdateStmt:
		return buildUpdatePlan(s, cat)
	case *parser.DeleteStmt:
		return buildDeletePlan(s, cat)
	case *parser.UnrecognizedStmt:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognized, s.Reason)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *parser.CreateTableStmt) Plan {
	cols := make([]record.Column, len(s.Columns))
	copy(cols, s.Columns)
	return &CreateTablePlan{
		TableName: s.TableName,
		Schema:    record.Schema{Cols: cols},
	}
}

func buildInsertPlan(s *parser.InsertStmt, cat Catalog) (Plan, error) {
	tbl, err := cat.OpenTable(s.TableName)
	if err != nil {
		return nil, err
	}
	return &InsertPlan{
		TableName: s.TableName,
		Schema:    tbl.Schema,
		Values:    s.Values,
	}, nil
}

func buildSelectPlan(s *parser.SelectStmt, cat Catalog) (Plan, error) {
	tbl, err := cat.OpenTable(s.TableName)
	if err != nil {
		return nil, err
	}

	var cols []string
	if s.IsWildcard() {
		cols = tbl.Schema.Names()
	} else {
		cols = make([]string, len(s.Columns))
		copy(cols, s.Columns)
	}

	return &SeqScanPlan{
		TableName: s.TableName,
		Columns:   cols,
		Where:     s.Where,
	}, nil
}

func buildUpdatePlan(s *parser.UpdateStmt, cat Catalog) (Plan, error) {
	tbl, err := cat.OpenTable(s.TableName)
	if err != nil {
		return nil, err
	}
	return &UpdatePlan{
		TableName: s.TableName,
		Schema:    tbl.Schema,
		Assigns:   s.Assignments,
		Where:     s.Where,
	}, nil
}

func buildDeletePlan(s *parser.DeleteStmt, cat Catalog) (Plan, error) {
	if _, err := cat.OpenTable(s.TableName); err != nil {
		return nil, err
	}
	return &DeletePlan{
		TableName: s.TableName,
		Where:     s.Where,
	}, nil
}
