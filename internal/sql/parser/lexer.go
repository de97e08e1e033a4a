package parser

import (
	"iter"
	"strings"
	"unicode"
)

const lineComment = "--"

// StripComments drops everything from "--" to the end of each line.
// Quotes are not considered: a "--" inside a literal starts a comment too.
func StripComments(text string) string {
	if !strings.Contains(text, lineComment) {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, lineComment); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

// Statements yields the ';'-separated statements of a script, comments
// removed and surrounding whitespace trimmed. A ';' inside a single-quoted
// literal does not end a statement. Blank statements are skipped; a final
// statement without ';' is still yielded.
func Statements(script string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s := StripComments(script)
		inQuote := false
		start := 0

		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '\'':
				inQuote = !inQuote
			case ';':
				if inQuote {
					continue
				}
				stmt := strings.TrimSpace(s[start:i])
				start = i + 1
				if stmt == "" {
					continue
				}
				if !yield(stmt) {
					return
				}
			}
		}

		if tail := strings.TrimSpace(s[start:]); tail != "" {
			yield(tail)
		}
	}
}

// Tokenize splits one statement on whitespace and strips the ';' that
// terminates the final token.
func Tokenize(stmt string) []string {
	toks := strings.Fields(stmt)
	if n := len(toks); n > 0 {
		last := strings.TrimSuffix(toks[n-1], ";")
		if last == "" {
			toks = toks[:n-1]
		} else {
			toks[n-1] = last
		}
	}
	return toks
}

// SplitList splits the inside of a parenthesised list on commas.
//
// A single-quoted literal may contain commas: once an item starts with an
// unmatched quote (or, for SET lists, the quote follows "col="),
// insideQuote stays set across the following commas (which are kept) until
// the closing quote. A quote anywhere else is an ordinary character. Only
// this one level is understood; escaped quotes are not. Items are trimmed.
// A blank input has no items.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var (
		items       []string
		cur         strings.Builder
		insideQuote bool
	)
	for _, r := range s {
		switch {
		case insideQuote:
			cur.WriteRune(r)
			if r == '\'' {
				insideQuote = false
			}
		case r == '\'' && opensLiteral(cur.String()):
			cur.WriteRune(r)
			insideQuote = true
		case r == ',':
			items = append(items, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(items, strings.TrimSpace(cur.String()))
}

func opensLiteral(prefix string) bool {
	p := strings.TrimSpace(prefix)
	return p == "" || strings.HasSuffix(p, "=")
}

// cutKeyword splits s around the first standalone, unquoted occurrence of
// kw. Keywords are case-sensitive.
func cutKeyword(s, kw string) (before, after string, found bool) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			inQuote = !inQuote
			continue
		}
		if inQuote || !strings.HasPrefix(s[i:], kw) {
			continue
		}
		end := i + len(kw)
		if (i == 0 || isSpace(s[i-1])) && (end == len(s) || isSpace(s[end])) {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[end:]), true
		}
	}
	return s, "", false
}

func isSpace(b byte) bool {
	return unicode.IsSpace(rune(b))
}

// isIdent reports whether s is a valid table or column name:
// a letter or '_' followed by letters, digits or '_'.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
