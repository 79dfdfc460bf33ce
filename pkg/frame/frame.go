// Package frame provides an in-memory tabular structure and the column
// utilities used to shape query results and bulk inserts.
package frame

import (
	"database/sql"
	"fmt"
	"slices"
)

// Frame is an ordered set of named columns of equal length.
// Column names are not required to be unique; lookups by name return the
// first column carrying that name.
type Frame struct {
	columns []string
	data    [][]any
}

// New builds a frame from row-major values. Every row must have one value
// per column.
func New(columns []string, rows ...[]any) (*Frame, error) {
	f := &Frame{
		columns: slices.Clone(columns),
		data:    make([][]any, len(columns)),
	}
	for i := range f.data {
		f.data[i] = make([]any, 0, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r, len(row), len(columns))
		}
		for c, v := range row {
			f.data[c] = append(f.data[c], v)
		}
	}
	return f, nil
}

// FromColumns builds a frame from column-major values.
func FromColumns(columns []string, data [][]any) (*Frame, error) {
	if len(columns) != len(data) {
		return nil, fmt.Errorf("got %d columns and %d value slices", len(columns), len(data))
	}
	f := &Frame{columns: slices.Clone(columns), data: make([][]any, len(data))}
	for i, col := range data {
		if i > 0 && len(col) != len(data[0]) {
			return nil, fmt.Errorf("column %q has %d values, want %d", columns[i], len(col), len(data[0]))
		}
		f.data[i] = slices.Clone(col)
	}
	return f, nil
}

// Columns returns a copy of the column names.
func (f *Frame) Columns() []string {
	return slices.Clone(f.columns)
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	return len(f.columns)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if len(f.data) == 0 {
		return 0
	}
	return len(f.data[0])
}

// Index returns the position of the first column named name, or -1.
func (f *Frame) Index(name string) int {
	return slices.Index(f.columns, name)
}

// Column returns a copy of the values of the named column.
func (f *Frame) Column(name string) ([]any, bool) {
	i := f.Index(name)
	if i < 0 {
		return nil, false
	}
	return slices.Clone(f.data[i]), true
}

// ColumnAt returns a copy of the values of column i.
func (f *Frame) ColumnAt(i int) []any {
	return slices.Clone(f.data[i])
}

// Row returns a copy of row i.
func (f *Frame) Row(i int) []any {
	row := make([]any, len(f.columns))
	for c := range f.data {
		row[c] = f.data[c][i]
	}
	return row
}

// Rows returns all rows in order.
func (f *Frame) Rows() [][]any {
	rows := make([][]any, f.Len())
	for i := range rows {
		rows[i] = f.Row(i)
	}
	return rows
}

// Copy returns a deep copy of the frame's column slices.
func (f *Frame) Copy() *Frame {
	out := &Frame{columns: slices.Clone(f.columns), data: make([][]any, len(f.data))}
	for i := range f.data {
		out.data[i] = slices.Clone(f.data[i])
	}
	return out
}

// Select returns a frame holding only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := &Frame{columns: make([]string, 0, len(names)), data: make([][]any, 0, len(names))}
	for _, name := range names {
		i := f.Index(name)
		if i < 0 {
			return nil, fmt.Errorf("column %q not found", name)
		}
		out.columns = append(out.columns, name)
		out.data = append(out.data, slices.Clone(f.data[i]))
	}
	return out, nil
}

// Rename returns a copy with every column name passed through fn.
func (f *Frame) Rename(fn func(string) string) *Frame {
	out := f.Copy()
	for i, name := range out.columns {
		out.columns[i] = fn(name)
	}
	return out
}

// WithIndex returns a copy with a leading column of row positions.
func (f *Frame) WithIndex(name string) *Frame {
	out := f.Copy()
	idx := make([]any, f.Len())
	for i := range idx {
		idx[i] = int64(i)
	}
	out.columns = append([]string{name}, out.columns...)
	out.data = append([][]any{idx}, out.data...)
	return out
}

// set replaces column i. Callers guarantee len(values) == f.Len().
func (f *Frame) set(i int, values []any) {
	f.data[i] = values
}

// FromRows drains rows into a frame. []byte values are converted to
// strings. rows is not closed.
func FromRows(rows *sql.Rows) (*Frame, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	f, err := New(columns)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			f.data[i] = append(f.data[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return f, nil
}
