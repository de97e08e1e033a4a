package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tuannm99/minidb/internal/engine"
	"github.com/tuannm99/minidb/internal/record"
)

// Encode serialises every table of db, sorted by name:
//
//	[TABLE:<name>]
//	<col> <TYPE>,<col> <TYPE>,...
//	<value>,<value>,...
//	[END_TABLE]
//
// TEXT values are written as-is. A value containing ',' will not survive
// Decode intact, and neither will one containing a line break: the row is
// split across lines and Decode reads each piece as a row of its own.
// Cells missing from a row are written as empty fields.
func Encode(db *engine.Database) string {
	var b strings.Builder
	for _, name := range db.ListTables() {
		tbl, ok := db.Scan(name)
		if !ok {
			continue
		}

		b.WriteString(tableOpenPrefix + name + tableOpenSuffix + "\n")

		header := make([]string, len(tbl.Schema.Cols))
		for i, c := range tbl.Schema.Cols {
			header[i] = c.Name + " " + c.Type.String()
		}
		b.WriteString(strings.Join(header, fieldSep) + "\n")

		fields := make([]string, len(tbl.Schema.Cols))
		for _, row := range tbl.Rows() {
			for i, c := range tbl.Schema.Cols {
				fields[i] = ""
				if v, ok := row[c.Name]; ok {
					fields[i] = v.String()
				}
			}
			b.WriteString(strings.Join(fields, fieldSep) + "\n")
		}

		b.WriteString(tableClose + "\n")
	}
	return b.String()
}

// LoadWarning describes data that Decode could not restore faithfully.
type LoadWarning struct {
	Line    int // 1-based line in the input
	Table   string
	Message string
}

func (w LoadWarning) String() string {
	if w.Table == "" {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return fmt.Sprintf("line %d: table %s: %s", w.Line, w.Table, w.Message)
}

// Decode rebuilds a database from Encode's format. It never fails: damaged
// input is restored as far as possible and every loss is reported as a
// LoadWarning.
//
// An INTEGER field that does not parse is left out of its row, as is a
// field missing from the end of a line. An unknown header type is read as
// TEXT. A second section for an already loaded table is skipped. Lines
// outside a section are ignored.
func Decode(text string) (*engine.Database, []LoadWarning) {
	d := &decoder{db: engine.NewDatabase()}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	// A trailing newline does not start another line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for i := 0; i < len(lines); i++ {
		d.line = i + 1
		line := lines[i]

		switch {
		case strings.HasPrefix(line, tableOpenPrefix) && strings.HasSuffix(line, tableOpenSuffix):
			name := line[len(tableOpenPrefix) : len(line)-len(tableOpenSuffix)]
			if i+1 >= len(lines) {
				d.warn(name, "section has no header line")
				d.closeSection()
				continue
			}
			i++
			d.line = i + 1
			d.openSection(name, lines[i])
		case line == tableClose:
			d.closeSection()
		case d.table == "":
			// outside any section
		case d.skipping:
		default:
			d.readRow(line)
		}
	}

	if d.table != "" {
		d.warn(d.table, "missing "+tableClose)
	}
	return d.db, d.warnings
}

type decoder struct {
	db       *engine.Database
	line     int
	table    string
	schema   record.Schema
	skipping bool
	warnings []LoadWarning
}

func (d *decoder) warn(table, format string, args ...any) {
	d.warnings = append(d.warnings, LoadWarning{
		Line:    d.line,
		Table:   table,
		Message: fmt.Sprintf(format, args...),
	})
}

func (d *decoder) openSection(name, header string) {
	if d.table != "" {
		d.warn(d.table, "missing %s before next section", tableClose)
	}
	d.table = name
	d.skipping = false

	if _, err := d.db.OpenTable(name); err == nil {
		d.warn(name, "duplicate section skipped")
		d.skipping = true
		return
	}

	d.schema = d.parseHeader(name, header)
	if _, err := d.db.CreateTable(name, d.schema); err != nil {
		d.warn(name, "create table: %v", err)
		d.skipping = true
	}
}

func (d *decoder) closeSection() {
	d.table = ""
	d.schema = record.Schema{}
	d.skipping = false
}

func (d *decoder) parseHeader(table, header string) record.Schema {
	var cols []record.Column
	for _, def := range strings.Split(header, fieldSep) {
		f := strings.Fields(def)
		if len(f) == 0 {
			d.warn(table, "empty column definition ignored")
			continue
		}

		col := record.Column{Name: f[0], Type: record.ColText}
		if len(f) < 2 {
			d.warn(table, "column %s has no type, reading it as TEXT", f[0])
		} else if ct, err := record.ParseColumnType(f[1]); err != nil {
			d.warn(table, "column %s has unknown type %s, reading it as TEXT", f[0], f[1])
		} else {
			col.Type = ct
		}
		cols = append(cols, col)
	}
	return record.Schema{Cols: cols}
}

func (d *decoder) readRow(line string) {
	fields := strings.Split(line, fieldSep)
	row := make(record.Row, len(d.schema.Cols))

	for i, c := range d.schema.Cols {
		if i >= len(fields) {
			d.warn(d.table, "field %s missing, left out of row", c.Name)
			continue
		}

		switch c.Type {
		case record.ColInteger:
			n, err := strconv.ParseInt(fields[i], 10, 64)
			if err != nil {
				d.warn(d.table, "field %s: %q is not an INTEGER, left out of row", c.Name, fields[i])
				continue
			}
			row[c.Name] = record.Integer(n)
		case record.ColText:
			row[c.Name] = record.Text(fields[i])
		}
	}

	if extra := len(fields) - len(d.schema.Cols); extra > 0 {
		d.warn(d.table, "%d extra field(s) ignored", extra)
	}

	if err := d.db.Insert(d.table, row); err != nil {
		d.warn(d.table, "insert: %v", err)
	}
}
