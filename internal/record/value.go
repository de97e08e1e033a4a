package record

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrCoercion = errors.New("record: cannot coerce literal")

// Value is a single typed cell. The set of implementations is closed:
// Integer and Text.
type Value interface {
	Type() ColumnType
	String() string
	value()
}

type Integer int64

func (Integer) Type() ColumnType  { return ColInteger }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (Integer) value()           {}

type Text string

func (Text) Type() ColumnType  { return ColText }
func (v Text) String() string { return string(v) }
func (Text) value()           {}

// Row maps column names to cells. A well-formed row holds every column of
// its table, but rows restored from a damaged file may miss some.
type Row map[string]Value

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Coerce converts a literal token into a cell of the given type.
// INTEGER literals must be plain base-10 numbers; TEXT literals lose one
// pair of enclosing single quotes.
func Coerce(t ColumnType, literal string) (Value, error) {
	switch t {
	case ColInteger:
		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a valid %s", ErrCoercion, literal, t)
		}
		return Integer(n), nil
	case ColText:
		return Text(Unquote(literal)), nil
	}
	return nil, fmt.Errorf("%w: %w %v", ErrCoercion, ErrUnknownType, t)
}

// Unquote strips one pair of enclosing single quotes. Escapes are not
// interpreted.
func Unquote(lit string) string {
	if len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'' {
		return lit[1 : len(lit)-1]
	}
	return lit
}
