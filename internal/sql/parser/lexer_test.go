package parser

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripComments(t *testing.T) {
	in := "SELECT * FROM t; -- trailing\n-- whole line\nINSERT INTO t VALUES (1);"
	assert.Equal(t, "SELECT * FROM t; \n\nINSERT INTO t VALUES (1);", StripComments(in))
	assert.Equal(t, "no comments", StripComments("no comments"))
}

func TestStatements_SplitsAndSkipsBlank(t *testing.T) {
	script := `
-- setup
CREATE TABLE t (id INTEGER, name TEXT);
   ;
INSERT INTO t VALUES (1,'Ann'); -- first
INSERT INTO t VALUES (2,'Bo')
`
	got := slices.Collect(Statements(script))
	assert.Equal(t, []string{
		"CREATE TABLE t (id INTEGER, name TEXT)",
		"INSERT INTO t VALUES (1,'Ann')",
		"INSERT INTO t VALUES (2,'Bo')",
	}, got)
}

func TestStatements_SemicolonInsideQuotes(t *testing.T) {
	got := slices.Collect(Statements("INSERT INTO t VALUES ('a;b'); SELECT * FROM t;"))
	assert.Equal(t, []string{"INSERT INTO t VALUES ('a;b')", "SELECT * FROM t"}, got)
}

func TestStatements_StopsEarly(t *testing.T) {
	n := 0
	for range Statements("A; B; C;") {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestStatements_Empty(t *testing.T) {
	assert.Empty(t, slices.Collect(Statements("  \n -- only a comment\n ; ;")))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"SELECT", "*", "FROM", "t"}, Tokenize("SELECT *\tFROM   t;"))
	assert.Equal(t, []string{"SELECT", "*", "FROM", "t"}, Tokenize("SELECT * FROM t ;"))
	assert.Empty(t, Tokenize("   "))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "1, 2 ,3", []string{"1", "2", "3"}},
		{"quoted comma", "1,'a,b',2", []string{"1", "'a,b'", "2"}},
		{"quoted many commas", "'x, y, z' , 7", []string{"'x, y, z'", "7"}},
		{"inner spaces kept", "'  padded  '", []string{"'  padded  '"}},
		{"quote mid item is literal", "O'Brien, 3", []string{"O'Brien", "3"}},
		{"unterminated quote swallows rest", "'a, b, c", []string{"'a, b, c"}},
		{"trailing comma", "1,2,", []string{"1", "2", ""}},
		{"blank", "   ", nil},
		{"column defs", "id INTEGER, name TEXT", []string{"id INTEGER", "name TEXT"}},
		{"assignment literal", "a=1, b = 'x, y'", []string{"a=1", "b = 'x, y'"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitList(tc.in))
		})
	}
}

func TestCutKeyword(t *testing.T) {
	before, after, ok := cutKeyword("UPDATE t SET name='a WHERE b' WHERE id=1", "WHERE")
	assert.True(t, ok)
	assert.Equal(t, "UPDATE t SET name='a WHERE b'", before)
	assert.Equal(t, "id=1", after)

	_, _, ok = cutKeyword("UPDATE SETTINGS x", "SET")
	assert.False(t, ok)

	_, _, ok = cutKeyword("DELETE FROM t where id=1", "WHERE")
	assert.False(t, ok)
}

func TestIsIdent(t *testing.T) {
	assert.True(t, isIdent("users"))
	assert.True(t, isIdent("_tmp1"))
	assert.False(t, isIdent("1abc"))
	assert.False(t, isIdent("a-b"))
	assert.False(t, isIdent(""))
}
