// Package table creates relational tables from schema descriptors or frames,
// writes rows into them and reads them back as frames.
package table

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/dataexec/pkg/frame"
)

// Row-position column names written by Tabular.Index. The fallback is used
// when the frame already has an "index" column.
const (
	indexColumn         = "index"
	fallbackIndexColumn = "level_0"
)

// execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Exec runs table operations against a database handle. It is not safe for
// concurrent use; the Metadata registry is.
type Exec struct {
	db       *sql.DB
	dialect  dialect
	metadata *Metadata
	verbose  bool
}

// Option configures an Exec.
type Option func(*Exec)

// WithVerbose logs every statement at debug level.
func WithVerbose(verbose bool) Option {
	return func(e *Exec) {
		e.verbose = verbose
	}
}

// WithMetadata shares a schema registry between executors.
func WithMetadata(m *Metadata) Option {
	return func(e *Exec) {
		e.metadata = m
	}
}

// NewExec creates an Exec for db, which was opened with driver.
func NewExec(db *sql.DB, driver string, opts ...Option) (*Exec, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	e := &Exec{db: db, dialect: d, metadata: NewMetadata()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// DB returns the underlying handle.
func (e *Exec) DB() *sql.DB {
	return e.db
}

// Metadata returns the schema registry.
func (e *Exec) Metadata() *Metadata {
	return e.metadata
}

// Tables returns the registered schemas.
func (e *Exec) Tables() []*Schema {
	return e.metadata.Schemas()
}

// CreateTableClass registers a schema whose first column is the primary key.
// The table exists only in memory until CreateTables runs.
func (e *Exec) CreateTableClass(columns []string, tableName, className string) (*Schema, error) {
	s, err := NewSchema(columns, tableName, className)
	if err != nil {
		return nil, err
	}
	if err := e.metadata.Register(s); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateTables creates every registered table that does not exist yet.
func (e *Exec) CreateTables(ctx context.Context) error {
	schemas := e.metadata.Schemas()
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		for _, s := range schemas {
			if err := e.exec(ctx, tx, s.createSQL()); err != nil {
				return fmt.Errorf("creating table %s: %w", s.TableName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("created tables", "count", len(schemas), "driver", e.dialect.name)
	return nil
}

// Add writes p: a single Record, a batch of Records, or a Tabular frame.
func (e *Exec) Add(ctx context.Context, p Payload) error {
	switch v := p.(type) {
	case Record:
		return e.withTx(ctx, func(tx *sql.Tx) error {
			return e.insertRecord(ctx, tx, v)
		})
	case Records:
		return e.withTx(ctx, func(tx *sql.Tx) error {
			for _, r := range v {
				if err := e.insertRecord(ctx, tx, r); err != nil {
					return err
				}
			}
			return nil
		})
	case Tabular:
		return e.writeTabular(ctx, v)
	default:
		return fmt.Errorf("unsupported payload %T", p)
	}
}

func (e *Exec) insertRecord(ctx context.Context, q execer, r Record) error {
	s, ok := e.metadata.Lookup(r.Table)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, r.Table)
	}

	cols := make([]string, 0, len(r.Values))
	vals := make([]any, 0, len(r.Values))
	for _, c := range s.Columns {
		if v, ok := r.Values[c]; ok {
			cols = append(cols, c)
			vals = append(vals, v)
		}
	}
	if len(cols) != len(r.Values) {
		for name := range r.Values {
			if !slices.Contains(s.Columns, name) {
				return fmt.Errorf("table %s has no column %q", s.TableName, name)
			}
		}
	}

	query, args, err := e.dialect.builder.
		Insert(quote(s.TableName)).
		Columns(quoteAll(cols)...).
		Values(vals...).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	if err := e.exec(ctx, q, query, args...); err != nil {
		return fmt.Errorf("inserting into %s: %w", s.TableName, err)
	}
	return nil
}

func (e *Exec) writeTabular(ctx context.Context, t Tabular) error {
	if t.Name == "" {
		return ErrNameRequired
	}
	if t.Frame == nil {
		return fmt.Errorf("no frame given for table %s", t.Name)
	}
	policy, err := t.IfExists.validate()
	if err != nil {
		return err
	}

	f := frame.SnakeCaseCols(t.Frame)
	if t.Index {
		name, err := indexColumnFor(f)
		if err != nil {
			return fmt.Errorf("%w: %s", err, t.Name)
		}
		f = f.WithIndex(name)
	}
	if f.Width() == 0 {
		return fmt.Errorf("%w: %s", ErrNoColumns, t.Name)
	}

	err = e.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := e.tableExists(ctx, tx, t.Name)
		if err != nil {
			return err
		}

		switch policy {
		case IfExistsFail:
			if exists {
				return fmt.Errorf("%w: %s", ErrTableExists, t.Name)
			}
		case IfExistsReplace:
			if exists {
				if err := e.exec(ctx, tx, "DROP TABLE "+quote(t.Name)); err != nil {
					return fmt.Errorf("dropping %s: %w", t.Name, err)
				}
				exists = false
			}
		}

		if !exists {
			if err := e.exec(ctx, tx, e.frameCreateSQL(t.Name, f)); err != nil {
				return fmt.Errorf("creating table %s: %w", t.Name, err)
			}
		}
		return e.insertFrame(ctx, tx, t.Name, f)
	})
	if err != nil {
		return err
	}

	slog.Debug("wrote frame", "table", t.Name, "rows", f.Len(), "columns", f.Width(), "if_exists", string(policy))
	return nil
}

func indexColumnFor(f *frame.Frame) (string, error) {
	switch {
	case f.Index(indexColumn) < 0:
		return indexColumn, nil
	case f.Index(fallbackIndexColumn) < 0:
		return fallbackIndexColumn, nil
	default:
		return "", ErrIndexColumnExists
	}
}

func (e *Exec) frameCreateSQL(name string, f *frame.Frame) string {
	cols := f.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c) + " " + e.dialect.columnType(f.ColumnAt(i))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))
}

// insertFrame writes the rows of f with multi-row inserts sized to the
// driver's bind parameter limit.
func (e *Exec) insertFrame(ctx context.Context, q execer, name string, f *frame.Frame) error {
	rows := f.Rows()
	cols := quoteAll(f.Columns())
	per := max(1, e.dialect.maxParams/len(cols))

	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		ib := e.dialect.builder.Insert(quote(name)).Columns(cols...)
		for _, row := range rows[start:end] {
			ib = ib.Values(row...)
		}
		query, args, err := ib.ToSql()
		if err != nil {
			return fmt.Errorf("building insert: %w", err)
		}
		if err := e.exec(ctx, q, query, args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", name, err)
		}
	}
	return nil
}

func (e *Exec) tableExists(ctx context.Context, q execer, name string) (bool, error) {
	query, args, err := e.dialect.builder.
		Select("COUNT(*)").
		From(e.dialect.catalog).
		Where(e.dialect.catalogFilter).
		Where(sq.Eq{e.dialect.catalogName: name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building table lookup: %w", err)
	}
	e.log(query, args)

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return n > 0, nil
}

// ReadOptions narrows a GetDF read. Where keys are column names compared
// for equality; nil values match NULL and slices match any element.
type ReadOptions struct {
	Columns []string
	Where   map[string]any
	OrderBy []string
	Limit   uint64
}

// GetDF reads table into a frame on a dedicated connection that is released
// before returning.
func (e *Exec) GetDF(ctx context.Context, table string, opts ReadOptions) (*frame.Frame, error) {
	cols := []string{"*"}
	if len(opts.Columns) > 0 {
		cols = quoteAll(opts.Columns)
	}
	qb := e.dialect.builder.Select(cols...).From(quote(table))
	if len(opts.Where) > 0 {
		eq := make(sq.Eq, len(opts.Where))
		for k, v := range opts.Where {
			eq[quote(k)] = v
		}
		qb = qb.Where(eq)
	}
	if len(opts.OrderBy) > 0 {
		qb = qb.OrderBy(quoteAll(opts.OrderBy)...)
	}
	if opts.Limit > 0 {
		qb = qb.Limit(opts.Limit)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	f, err := e.QueryDF(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	return f, nil
}

// QueryDF runs query on a dedicated connection and returns the result rows.
func (e *Exec) QueryDF(ctx context.Context, query string, args ...any) (*frame.Frame, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	e.log(query, args)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return frame.FromRows(rows)
}

// TableNames lists the tables present in the database.
func (e *Exec) TableNames(ctx context.Context) ([]string, error) {
	e.log(e.dialect.listTables, nil)
	rows, err := e.db.QueryContext(ctx, e.dialect.listTables)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table names: %w", err)
	}
	return names, nil
}

func (e *Exec) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (e *Exec) exec(ctx context.Context, q execer, query string, args ...any) error {
	e.log(query, args)
	_, err := q.ExecContext(ctx, query, args...)
	return err
}

func (e *Exec) log(query string, args []any) {
	if e.verbose {
		slog.Debug("sql", "driver", e.dialect.name, "statement", query, "args", len(args))
	}
}
