package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// History is the statement history kept in its own file, one compacted
// statement per line. A statement identical to the one before it is only
// kept once.
type History struct {
	path  string
	lines []string
}

func NewHistory(path string) *History {
	return &History{path: path}
}

// Load reads the history file, keeping the newest max statements (0 keeps
// all). A missing file is an empty history.
func (h *History) Load(max int) error {
	if h.path == "" {
		return nil
	}
	raw, err := os.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("history %s: %w", h.path, err)
	}

	for line := range strings.Lines(string(raw)) {
		h.remember(CompactOneLine(line))
	}
	if max > 0 && len(h.lines) > max {
		h.lines = slices.Clone(h.lines[len(h.lines)-max:])
	}
	return nil
}

// Append records stmt in memory and, with a path set, in the file.
func (h *History) Append(stmt string) error {
	stmt = CompactOneLine(stmt)
	if !h.remember(stmt) || h.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = fmt.Fprintln(f, stmt)
	return err
}

// remember adds stmt unless it is blank or repeats the newest entry.
func (h *History) remember(stmt string) bool {
	if stmt == "" {
		return false
	}
	if n := len(h.lines); n > 0 && h.lines[n-1] == stmt {
		return false
	}
	h.lines = append(h.lines, stmt)
	return true
}

func (h *History) Lines() []string { return h.lines }

// Print writes the last n entries (all when n <= 0), numbered from 1.
func (h *History) Print(w io.Writer, last int) {
	if last <= 0 || last > len(h.lines) {
		last = len(h.lines)
	}
	for i := len(h.lines) - last; i < len(h.lines); i++ {
		fmt.Fprintf(w, "%5d  %s\n", i+1, h.lines[i])
	}
}

// CompactOneLine folds a statement onto one line. Whitespace runs outside
// quotes collapse to a single space; inside a literal only line breaks
// become spaces, since the file holds one statement per line.
func CompactOneLine(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	inQuote, space := false, false
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case inQuote && (r == '\n' || r == '\r'):
			r = ' '
		case !inQuote && unicode.IsSpace(r):
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// DefaultHistoryPath places a relative name in the home directory.
func DefaultHistoryPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return name
	}
	return filepath.Join(home, name)
}
