package frame

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFrame(t *testing.T, columns []string, rows ...[]any) *Frame {
	t.Helper()
	f, err := New(columns, rows...)
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	f := mustFrame(t, []string{"a", "b"}, []any{1, "x"}, []any{2, "y"})
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 2, f.Width())
	assert.Equal(t, []any{2, "y"}, f.Row(1))

	col, ok := f.Column("b")
	require.True(t, ok)
	assert.Equal(t, []any{"x", "y"}, col)

	_, ok = f.Column("missing")
	assert.False(t, ok)

	_, err := New([]string{"a", "b"}, []any{1})
	assert.Error(t, err)
}

func TestNewEmpty(t *testing.T) {
	f := mustFrame(t, []string{"a"})
	assert.Equal(t, 0, f.Len())
	assert.Empty(t, f.Rows())

	none := mustFrame(t, nil)
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, 0, none.Width())
}

func TestFromColumns(t *testing.T) {
	f, err := FromColumns([]string{"a", "b"}, [][]any{{1, 2}, {"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{1, "x"}, {2, "y"}}, f.Rows())

	_, err = FromColumns([]string{"a"}, [][]any{{1}, {2}})
	assert.Error(t, err)

	_, err = FromColumns([]string{"a", "b"}, [][]any{{1, 2}, {"x"}})
	assert.Error(t, err)
}

func TestCopyIsIndependent(t *testing.T) {
	f := mustFrame(t, []string{"a"}, []any{1})
	c := f.Copy()
	c.data[0][0] = 99
	c.columns[0] = "z"

	assert.Equal(t, []any{1}, f.Row(0))
	assert.Equal(t, []string{"a"}, f.Columns())
}

func TestSelect(t *testing.T) {
	f := mustFrame(t, []string{"a", "b", "c"}, []any{1, 2, 3})
	s, err := f.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, s.Columns())
	assert.Equal(t, []any{3, 1}, s.Row(0))

	_, err = f.Select("nope")
	assert.Error(t, err)
}

func TestWithIndex(t *testing.T) {
	f := mustFrame(t, []string{"v"}, []any{"a"}, []any{"b"})
	idx := f.WithIndex("index")
	assert.Equal(t, []string{"index", "v"}, idx.Columns())
	assert.Equal(t, [][]any{{int64(0), "a"}, {int64(1), "b"}}, idx.Rows())
	assert.Equal(t, []string{"v"}, f.Columns())
}

func TestFromRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("alpha")).
			AddRow(int64(2), nil),
	)

	rows, err := db.Query("SELECT id, name FROM t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	f, err := FromRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, f.Columns())
	assert.Equal(t, [][]any{{int64(1), "alpha"}, {int64(2), nil}}, f.Rows())
	require.NoError(t, mock.ExpectationsWereMet())
}
