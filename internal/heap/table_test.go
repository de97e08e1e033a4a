package heap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/minidb/internal/record"
)

func newTestTable(t *testing.T, n int) *Table {
	t.Helper()

	schema := record.Schema{
		Cols: []record.Column{
			{Name: "id", Type: record.ColInteger},
			{Name: "name", Type: record.ColText},
		},
	}
	tbl := NewTable("users", schema)
	for i := 1; i <= n; i++ {
		tbl.Insert(record.Row{
			"id":   record.Integer(i),
			"name": record.Text(fmt.Sprintf("user-%d", i)),
		})
	}
	return tbl
}

func ids(t *testing.T, tbl *Table) []int64 {
	t.Helper()

	var out []int64
	require.NoError(t, tbl.Scan(func(_ int, row record.Row) error {
		out = append(out, int64(row["id"].(record.Integer)))
		return nil
	}))
	return out
}

func TestTable_InsertAndScan_KeepsOrder(t *testing.T) {
	tbl := newTestTable(t, 5)
	require.Equal(t, 5, tbl.Len())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(t, tbl))
}

func TestTable_Scan_StopsOnError(t *testing.T) {
	tbl := newTestTable(t, 5)
	stop := errors.New("stop")

	seen := 0
	err := tbl.Scan(func(pos int, _ record.Row) error {
		seen++
		if pos == 1 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestTable_DeleteWhere_StableFilter(t *testing.T) {
	tbl := newTestTable(t, 6)

	even := func(r record.Row) bool { return r["id"].(record.Integer)%2 == 0 }
	n := tbl.DeleteWhere(even)

	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{1, 3, 5}, ids(t, tbl))

	// nothing left to remove
	assert.Equal(t, 0, tbl.DeleteWhere(even))
}

func TestTable_DeleteWhere_All(t *testing.T) {
	tbl := newTestTable(t, 4)

	all := func(record.Row) bool { return true }
	assert.Equal(t, 4, tbl.DeleteWhere(all))
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 0, tbl.DeleteWhere(all))
}

func TestTable_UpdateWhere_InPlace(t *testing.T) {
	tbl := newTestTable(t, 3)

	n := tbl.UpdateWhere(
		func(r record.Row) bool { return r["id"] == record.Integer(2) },
		func(r record.Row) { r["name"] = record.Text("Zed") },
	)
	require.Equal(t, 1, n)

	rows := tbl.Rows()
	assert.Equal(t, record.Text("user-1"), rows[0]["name"])
	assert.Equal(t, record.Text("Zed"), rows[1]["name"])
	assert.Equal(t, record.Text("user-3"), rows[2]["name"])
}

func TestTable_UpdateWhere_CountsMatchesEvenIfMutateDoesNothing(t *testing.T) {
	tbl := newTestTable(t, 3)

	n := tbl.UpdateWhere(func(record.Row) bool { return true }, func(record.Row) {})
	assert.Equal(t, 3, n)
}

func TestTable_Snapshot_IsIndependent(t *testing.T) {
	tbl := newTestTable(t, 2)
	snap := tbl.Snapshot()

	tbl.UpdateWhere(func(record.Row) bool { return true }, func(r record.Row) { r["name"] = record.Text("x") })
	tbl.Insert(record.Row{"id": record.Integer(9), "name": record.Text("late")})

	require.Equal(t, 2, snap.Len())
	assert.Equal(t, record.Text("user-1"), snap.Rows()[0]["name"])
	assert.Equal(t, tbl.Schema, snap.Schema)
}
