package heap

import (
	"github.com/tuannm99/minidb/internal/record"
)

// Table is the row storage of one relation: name, schema and rows kept in
// arrival order.
type Table struct {
	Name   string
	Schema record.Schema

	rows []record.Row
}

func NewTable(name string, schema record.Schema) *Table {
	return &Table{
		Name:   name,
		Schema: schema,
	}
}

// Insert appends row. The row is owned by the table afterwards.
func (t *Table) Insert(row record.Row) {
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int { return len(t.rows) }

// Scan visits rows in storage order. fn must not keep or modify row; use
// Snapshot for that. A non-nil error from fn stops the scan and is returned.
func (t *Table) Scan(fn func(pos int, row record.Row) error) error {
	for i, row := range t.rows {
		if err := fn(i, row); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns copies of every row in storage order.
func (t *Table) Rows() []record.Row {
	out := make([]record.Row, len(t.rows))
	for i, row := range t.rows {
		out[i] = row.Clone()
	}
	return out
}

// Snapshot deep-copies the table.
func (t *Table) Snapshot() *Table {
	cp := &Table{
		Name:   t.Name,
		Schema: t.Schema.Clone(),
	}
	if t.rows != nil {
		cp.rows = t.Rows()
	}
	return cp
}

// UpdateWhere calls mutate on every row that match accepts, in storage
// order, and returns how many rows matched. mutate edits the row in place.
func (t *Table) UpdateWhere(match func(record.Row) bool, mutate func(record.Row)) int {
	n := 0
	for _, row := range t.rows {
		if !match(row) {
			continue
		}
		mutate(row)
		n++
	}
	return n
}

// DeleteWhere removes every row that match accepts. Survivors keep their
// relative order.
func (t *Table) DeleteWhere(match func(record.Row) bool) int {
	kept := t.rows[:0]
	for _, row := range t.rows {
		if match(row) {
			continue
		}
		kept = append(kept, row)
	}
	removed := len(t.rows) - len(kept)

	// drop references held by the tail of the backing array
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = nil
	}
	t.rows = kept
	return removed
}
