package planner

import (
	"github.com/tuannm99/minidb/internal/record"
	"github.com/tuannm99/minidb/internal/sql/parser"
)

// Plan is the interface for executable plans.
type Plan interface {
	planNode()
}

// ----- Plan nodes -----

type CreateTablePlan struct {
	TableName string
	Schema    record.Schema
}

func (*CreateTablePlan) planNode() {}

type InsertPlan struct {
	TableName string
	Schema    record.Schema
	Values    []string // coerced at execution
}

func (*InsertPlan) planNode() {}

// SeqScanPlan is a full scan with an optional filter. Columns is the
// resolved projection: "*" already expanded, unknown names kept.
type SeqScanPlan struct {
	TableName string
	Columns   []string
	Where     *parser.WhereClause
}

func (*SeqScanPlan) planNode() {}

type UpdatePlan struct {
	TableName string
	Schema    record.Schema
	Assigns   []parser.Assignment
	Where     *parser.WhereClause
}

func (*UpdatePlan) planNode() {}

type DeletePlan struct {
	TableName string
	Where     *parser.WhereClause
}

func (*DeletePlan) planNode() {}
