package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tuannm99/minidb/internal/heap"
	"github.com/tuannm99/minidb/internal/record"
)

var (
	ErrTableExists   = errors.New("minidb: table already exists")
	ErrTableNotFound = errors.New("minidb: table not found")
)

type DatabaseOperation interface {
	CreateTable(name string, schema record.Schema) (*heap.Table, error)
	OpenTable(name string) (*heap.Table, error)
	ListTables() []string
}

var _ DatabaseOperation = (*Database)(nil)

// Database is the in-memory set of tables. It is not safe for concurrent
// use; callers that share it must serialise access.
type Database struct {
	tables map[string]*heap.Table
}

func NewDatabase() *Database {
	return &Database{tables: make(map[string]*heap.Table)}
}

// CreateTable registers an empty table. Column order is preserved.
func (db *Database) CreateTable(name string, schema record.Schema) (*heap.Table, error) {
	if _, ok := db.tables[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	tbl := heap.NewTable(name, schema)
	db.tables[name] = tbl
	return tbl, nil
}

// OpenTable returns the live table. Mutations through it are visible to
// the database.
func (db *Database) OpenTable(name string) (*heap.Table, error) {
	tbl, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return tbl, nil
}

func (db *Database) Insert(name string, row record.Row) error {
	tbl, err := db.OpenTable(name)
	if err != nil {
		return err
	}
	tbl.Insert(row)
	return nil
}

// UpdateRows applies mutate in place to every row match accepts and returns
// the number of matched rows.
func (db *Database) UpdateRows(name string, match func(record.Row) bool, mutate func(record.Row)) (int, error) {
	tbl, err := db.OpenTable(name)
	if err != nil {
		return 0, err
	}
	return tbl.UpdateWhere(match, mutate), nil
}

// DeleteRows removes every row match accepts and returns how many went.
func (db *Database) DeleteRows(name string, match func(record.Row) bool) (int, error) {
	tbl, err := db.OpenTable(name)
	if err != nil {
		return 0, err
	}
	return tbl.DeleteWhere(match), nil
}

// Scan returns a detached copy of the table, or false if it does not exist.
func (db *Database) Scan(name string) (*heap.Table, bool) {
	tbl, ok := db.tables[name]
	if !ok {
		return nil, false
	}
	return tbl.Snapshot(), true
}

// ListTables returns table names in sorted order.
func (db *Database) ListTables() []string {
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (db *Database) NumTables() int { return len(db.tables) }

// Replace swaps the whole table set for the one held by other.
func (db *Database) Replace(other *Database) {
	db.tables = other.tables
	other.tables = make(map[string]*heap.Table)
}
