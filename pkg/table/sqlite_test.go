package table

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dataexec/pkg/database"
	"github.com/txn2/dataexec/pkg/frame"
)

func newSQLiteExec(t *testing.T) *Exec {
	t.Helper()
	p := database.Params{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "dataexec.db"),
	}
	db, err := database.Open(context.Background(), p, database.PoolConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e, err := NewExec(db, p.Driver, WithVerbose(true))
	require.NoError(t, err)
	return e
}

func TestSQLiteRecordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newSQLiteExec(t)

	people, err := e.CreateTableClass([]string{"id", "name", "team"}, "people", "Person")
	require.NoError(t, err)
	require.NoError(t, e.CreateTables(ctx))
	require.NoError(t, e.CreateTables(ctx), "create tables is idempotent")

	ann, err := people.Record("p1", "Ann", "a")
	require.NoError(t, err)
	bob, err := people.Record("p2", "Bob", "b")
	require.NoError(t, err)
	require.NoError(t, e.Add(ctx, Records{ann, bob}))

	cat, err := people.Record("p3", "Cat", "a")
	require.NoError(t, err)
	require.NoError(t, e.Add(ctx, cat))

	f, err := e.GetDF(ctx, "people", ReadOptions{
		Columns: []string{"id", "name"},
		Where:   map[string]any{"team": "a"},
		OrderBy: []string{"id"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"p1", "Ann"}, {"p3", "Cat"}}, f.Rows())

	// a duplicate key aborts the whole batch
	dan, err := people.Record("p4", "Dan", "c")
	require.NoError(t, err)
	err = e.Add(ctx, Records{dan, ann})
	require.Error(t, err)

	all, err := e.GetDF(ctx, "people", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())

	names, err := e.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"people"}, names)
}

func TestSQLiteTabularPolicies(t *testing.T) {
	ctx := context.Background()
	e := newSQLiteExec(t)

	src, err := frame.New([]string{"Start Date", "Final Value", "Count"},
		[]any{"2021-01-01", 1.5, int64(3)},
		[]any{"2021-01-02", 2.5, int64(4)},
	)
	require.NoError(t, err)

	payload := Tabular{Frame: src, Name: "scores", Index: true}
	require.NoError(t, e.Add(ctx, payload))

	f, err := e.GetDF(ctx, "scores", ReadOptions{OrderBy: []string{"index"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"index", "start_date", "final_value", "count"}, f.Columns())
	assert.Equal(t, []any{int64(0), "2021-01-01", 1.5, int64(3)}, f.Row(0))

	require.NoError(t, e.Add(ctx, payload))
	f, err = e.GetDF(ctx, "scores", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len(), "append adds rows")

	payload.IfExists = IfExistsFail
	err = e.Add(ctx, payload)
	assert.ErrorIs(t, err, ErrTableExists)

	payload.IfExists = IfExistsReplace
	payload.Index = false
	require.NoError(t, e.Add(ctx, payload))
	f, err = e.GetDF(ctx, "scores", ReadOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len(), "replace drops old rows")
	assert.Equal(t, []string{"start_date", "final_value", "count"}, f.Columns())

	q, err := e.QueryDF(ctx, `SELECT SUM("count") AS total FROM "scores"`)
	require.NoError(t, err)
	total, ok := q.Column("total")
	require.True(t, ok)
	assert.Equal(t, []any{int64(7)}, total)
}

func TestSQLiteEmptyFrameCreatesTable(t *testing.T) {
	ctx := context.Background()
	e := newSQLiteExec(t)

	empty, err := frame.New([]string{"A Column"})
	require.NoError(t, err)
	require.NoError(t, e.Add(ctx, Tabular{Frame: empty, Name: "empty"}))

	f, err := e.GetDF(ctx, "empty", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_column"}, f.Columns())
	assert.Equal(t, 0, f.Len())
}
