package record

import (
	"errors"
	"fmt"
)

var ErrUnknownType = errors.New("record: unknown column type")

// ColumnType is fixed when the column is declared and never changes.
type ColumnType uint8

const (
	ColInteger ColumnType = iota + 1
	ColText
)

func (t ColumnType) String() string {
	switch t {
	case ColInteger:
		return "INTEGER"
	case ColText:
		return "TEXT"
	}
	return fmt.Sprintf("ColumnType(%d)", uint8(t))
}

// ParseColumnType maps a type keyword to a ColumnType. Keywords are case-sensitive.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "INTEGER":
		return ColInteger, nil
	case "TEXT":
		return ColText, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list of a table. Order drives positional
// INSERT mapping and the persisted header.
type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

// ColumnIndex returns the position of name, or -1.
func (s Schema) ColumnIndex(name string) int {
	for i := range s.Cols {
		if s.Cols[i].Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) Column(name string) (Column, bool) {
	pos := s.ColumnIndex(name)
	if pos < 0 {
		return Column{}, false
	}
	return s.Cols[pos], true
}

func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		out[i] = c.Name
	}
	return out
}

// Clone returns a schema that shares no memory with s.
func (s Schema) Clone() Schema {
	cols := make([]Column, len(s.Cols))
	copy(cols, s.Cols)
	return Schema{Cols: cols}
}
