package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/minidb/internal/engine"
	"github.com/tuannm99/minidb/internal/record"
)

func newTestExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	e := NewExecutor(engine.NewDatabase(), opts...)
	for _, sql := range []string{
		"CREATE TABLE t (id INTEGER, name TEXT);",
		"INSERT INTO t VALUES (1,'Ann');",
		"INSERT INTO t VALUES (2,'Bo');",
	} {
		res := e.ExecSQL(sql)
		require.False(t, res.Failed(), "%s: %s", sql, res.Detail)
	}
	return e
}

func rowsOf(t *testing.T, e *Executor, table string) []record.Row {
	t.Helper()
	tbl, ok := e.DB().Scan(table)
	require.True(t, ok)
	return tbl.Rows()
}

func TestExec_CreateTable(t *testing.T) {
	e := NewExecutor(engine.NewDatabase())

	res := e.ExecSQL("CREATE TABLE users (id INTEGER, name TEXT);")
	assert.Equal(t, KindCreated, res.Kind)
	assert.Equal(t, "table 'users' created", res.Detail)

	res = e.ExecSQL("CREATE TABLE users (x TEXT);")
	assert.Equal(t, KindAlreadyExists, res.Kind)
	assert.True(t, res.Failed())

	tbl, ok := e.DB().Scan("users")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name"}, tbl.Schema.Names())
}

func TestExec_InsertThenSelectStar(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("SELECT * FROM t;")
	require.Equal(t, KindSelected, res.Kind)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, [][]string{{"1", "Ann"}, {"2", "Bo"}}, res.Rows)
	assert.EqualValues(t, 2, res.AffectedRows)

	assert.Equal(t, []record.Row{
		{"id": record.Integer(1), "name": record.Text("Ann")},
		{"id": record.Integer(2), "name": record.Text("Bo")},
	}, rowsOf(t, e, "t"))
}

func TestExec_SelectWhereGreater(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("SELECT * FROM t WHERE id > 1;")
	require.Equal(t, KindSelected, res.Kind)
	assert.Equal(t, [][]string{{"2", "Bo"}}, res.Rows)
	assert.Equal(t, "id  name  \n----------\n2   Bo    ", res.Detail)
}

func TestExec_SelectRendersWidthsFromFilteredRows(t *testing.T) {
	e := newTestExecutor(t)
	require.Equal(t, KindInserted, e.ExecSQL("INSERT INTO t VALUES (300,'Maximilian')").Kind)

	res := e.ExecSQL("SELECT name FROM t WHERE id = 1")
	assert.Equal(t, "name  \n------\nAnn   ", res.Detail)
}

func TestExec_SelectProjectionOrderAndUnknownColumn(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("SELECT name, ghost, id, name FROM t")
	require.Equal(t, KindSelected, res.Kind)
	assert.Equal(t, []string{"name", "ghost", "id", "name"}, res.Columns)
	assert.Equal(t, [][]string{
		{"Ann", "", "1", "Ann"},
		{"Bo", "", "2", "Bo"},
	}, res.Rows)
	assert.Contains(t, res.Detail, "Ann   "+"       "+"1   ")
}

func TestExec_SelectTypeMismatchMatchesNothing(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("SELECT * FROM t WHERE id = abc")
	require.Equal(t, KindSelected, res.Kind)
	assert.Empty(t, res.Rows)
	assert.Equal(t, "id  name  \n----------", res.Detail)
}

func TestExec_SelectMissingTable(t *testing.T) {
	e := newTestExecutor(t)
	res := e.ExecSQL("SELECT * FROM ghost")
	assert.Equal(t, KindTableNotFound, res.Kind)
	assert.Equal(t, "table 'ghost' does not exist", res.Detail)
}

func TestExec_InsertMissingTable_NoMutation(t *testing.T) {
	e := NewExecutor(engine.NewDatabase())

	res := e.ExecSQL("INSERT INTO ghost VALUES (1)")
	assert.Equal(t, KindTableNotFound, res.Kind)
	assert.Equal(t, 0, e.DB().NumTables())
}

func TestExec_InsertArityMismatch(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("INSERT INTO t VALUES (3)")
	assert.Equal(t, KindInsertError, res.Kind)
	assert.Contains(t, res.Detail, "2 columns but 1 values")

	res = e.ExecSQL("INSERT INTO t VALUES (3,'x','y')")
	assert.Equal(t, KindInsertError, res.Kind)
	assert.Len(t, rowsOf(t, e, "t"), 2)
}

func TestExec_InsertCoercionFailureAbortsWholeRow(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("INSERT INTO t VALUES (abc,'Cy')")
	assert.Equal(t, KindInsertError, res.Kind)
	assert.Equal(t, "value abc is not a valid INTEGER for column 'id'", res.Detail)
	assert.Len(t, rowsOf(t, e, "t"), 2)
}

func TestExec_InsertTextWithComma(t *testing.T) {
	e := newTestExecutor(t)

	require.Equal(t, KindInserted, e.ExecSQL("INSERT INTO t VALUES (3,'Lee, Ann')").Kind)
	rows := rowsOf(t, e, "t")
	assert.Equal(t, record.Text("Lee, Ann"), rows[2]["name"])
}

func TestExec_UpdateWhere(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("UPDATE t SET name='Zed' WHERE id=1;")
	require.Equal(t, KindUpdated, res.Kind)
	assert.EqualValues(t, 1, res.AffectedRows)
	assert.Empty(t, res.Warnings)

	sel := e.ExecSQL("SELECT * FROM t;")
	assert.Equal(t, [][]string{{"1", "Zed"}, {"2", "Bo"}}, sel.Rows)
}

func TestExec_UpdateNoMatch_LeavesTableUnchanged(t *testing.T) {
	e := newTestExecutor(t)
	before := rowsOf(t, e, "t")

	res := e.ExecSQL("UPDATE t SET name='Zed' WHERE id=99")
	assert.Equal(t, KindUpdated, res.Kind)
	assert.EqualValues(t, 0, res.AffectedRows)
	assert.Equal(t, before, rowsOf(t, e, "t"))
}

func TestExec_UpdatePartialFailureKeepsGoodClauses(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("UPDATE t SET id=oops, name='Same', ghost=1")
	require.Equal(t, KindUpdated, res.Kind)
	assert.EqualValues(t, 2, res.AffectedRows)
	assert.Equal(t, []string{
		"value oops is not a valid INTEGER for column 'id'",
		"unknown column 'ghost'",
	}, res.Warnings)

	assert.Equal(t, []record.Row{
		{"id": record.Integer(1), "name": record.Text("Same")},
		{"id": record.Integer(2), "name": record.Text("Same")},
	}, rowsOf(t, e, "t"))
}

func TestExec_UpdateAtomicMode(t *testing.T) {
	e := newTestExecutor(t, WithAtomicUpdate(true))
	before := rowsOf(t, e, "t")

	res := e.ExecSQL("UPDATE t SET id=oops, name='Same'")
	assert.Equal(t, KindUpdateError, res.Kind)
	assert.True(t, res.Failed())
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, before, rowsOf(t, e, "t"))

	res = e.ExecSQL("UPDATE t SET id=7, name='Same' WHERE name = 'Bo'")
	assert.Equal(t, KindUpdated, res.Kind)
	assert.EqualValues(t, 1, res.AffectedRows)
}

func TestExec_UpdateLaterClauseWins(t *testing.T) {
	e := newTestExecutor(t)
	e.ExecSQL("UPDATE t SET name='a', name='b' WHERE id = 2")
	assert.Equal(t, record.Text("b"), rowsOf(t, e, "t")[1]["name"])
}

func TestExec_DeleteAllThenAgain(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("DELETE FROM t;")
	assert.Equal(t, KindDeleted, res.Kind)
	assert.EqualValues(t, 2, res.AffectedRows)
	assert.Empty(t, rowsOf(t, e, "t"))

	res = e.ExecSQL("DELETE FROM t;")
	assert.EqualValues(t, 0, res.AffectedRows)
	assert.Equal(t, "0 row(s) deleted", res.Detail)
}

func TestExec_DeleteWhere(t *testing.T) {
	e := newTestExecutor(t)
	e.ExecSQL("INSERT INTO t VALUES (3,'Cy')")

	res := e.ExecSQL("DELETE FROM t WHERE id != 2")
	assert.EqualValues(t, 2, res.AffectedRows)
	assert.Equal(t, [][]string{{"2", "Bo"}}, e.ExecSQL("SELECT * FROM t").Rows)
}

func TestExec_DeleteMissingTable(t *testing.T) {
	e := newTestExecutor(t)
	assert.Equal(t, KindTableNotFound, e.ExecSQL("DELETE FROM ghost").Kind)
	assert.Equal(t, KindTableNotFound, e.ExecSQL("UPDATE ghost SET a=1").Kind)
}

func TestExec_SyntaxError(t *testing.T) {
	e := newTestExecutor(t)

	res := e.ExecSQL("SELEKT * FROM t")
	assert.Equal(t, KindSyntaxError, res.Kind)
	assert.Contains(t, res.Detail, "syntax error")
	assert.Len(t, rowsOf(t, e, "t"), 2)
}

func TestExec_TwoStatementsInOneCallInsertNothing(t *testing.T) {
	e := NewExecutor(engine.NewDatabase())
	require.False(t, e.ExecSQL("CREATE TABLE n (note TEXT);").Failed())

	res := e.ExecSQL("INSERT INTO n VALUES ('x'); INSERT INTO n VALUES ('y');")
	assert.Equal(t, KindSyntaxError, res.Kind)
	assert.Contains(t, res.Detail, "more than one statement")
	assert.Empty(t, rowsOf(t, e, "n"))

	results := e.ExecScript("INSERT INTO n VALUES ('x'); INSERT INTO n VALUES ('y');")
	require.Len(t, results, 2)
	assert.Equal(t, []record.Row{
		{"note": record.Text("x")},
		{"note": record.Text("y")},
	}, rowsOf(t, e, "n"))
}

func TestExec_Script(t *testing.T) {
	e := NewExecutor(engine.NewDatabase())

	results := e.ExecScript(`
-- demo
CREATE TABLE t (id INTEGER, name TEXT);
INSERT INTO t VALUES (1,'Ann');
INSERT INTO t VALUES (2,'Bo');
nonsense;
SELECT * FROM t WHERE id > 1;
`)
	require.Len(t, results, 5)
	assert.Equal(t, KindCreated, results[0].Kind)
	assert.Equal(t, KindInserted, results[1].Kind)
	assert.Equal(t, KindInserted, results[2].Kind)
	assert.Equal(t, KindSyntaxError, results[3].Kind)
	assert.Equal(t, [][]string{{"2", "Bo"}}, results[4].Rows)
}

func TestResult_String(t *testing.T) {
	r := &Result{Detail: "2 row(s) updated", Warnings: []string{"unknown column 'x'"}}
	assert.Equal(t, "2 row(s) updated\nwarning: unknown column 'x'", r.String())

	r = &Result{Detail: "ok"}
	assert.Equal(t, "ok", r.String())
}
