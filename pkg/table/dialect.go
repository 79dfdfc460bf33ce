package table

import (
	"fmt"
	"reflect"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/txn2/dataexec/pkg/database"
)

// dialect holds the per-driver SQL differences.
type dialect struct {
	name      string
	builder   sq.StatementBuilderType
	maxParams int

	// listTables returns every user table of the current schema.
	listTables string
	// catalog and its filter locate a single table by name.
	catalog       string
	catalogFilter sq.Sqlizer
	catalogName   string

	intType    string
	floatType  string
	boolType   string
	timeType   string
	bytesType  string
	stringType string
}

var (
	postgresDialect = dialect{
		name:      database.DriverPostgres,
		builder:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		maxParams: 65535,
		listTables: `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		catalog:       "information_schema.tables",
		catalogFilter: sq.Expr("table_schema = current_schema()"),
		catalogName:   "table_name",
		intType:       "BIGINT",
		floatType:     "DOUBLE PRECISION",
		boolType:      "BOOLEAN",
		timeType:      "TIMESTAMP",
		bytesType:     "BYTEA",
		stringType:    "TEXT",
	}

	sqliteDialect = dialect{
		name:      database.DriverSQLite,
		builder:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
		maxParams: 999,
		listTables: `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`,
		catalog:       "sqlite_master",
		catalogFilter: sq.Eq{"type": "table"},
		catalogName:   "name",
		intType:       "INTEGER",
		floatType:     "REAL",
		boolType:      "BOOLEAN",
		timeType:      "TIMESTAMP",
		bytesType:     "BLOB",
		stringType:    "TEXT",
	}
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case database.DriverPostgres, "postgresql":
		return postgresDialect, nil
	case database.DriverSQLite, "sqlite":
		return sqliteDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

// quote quotes an identifier. Both dialects accept ANSI double quotes.
func quote(name string) string {
	return pq.QuoteIdentifier(name)
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(n)
	}
	return out
}

// columnType infers a column type from its values. nil values are ignored;
// ints mixed with floats widen to float and any other mix falls back to text.
func (d dialect) columnType(values []any) string {
	kind := ""
	for _, v := range values {
		if v == nil {
			continue
		}
		k := valueKind(v)
		switch {
		case kind == "" || kind == k:
			kind = k
		case (kind == "int" && k == "float") || (kind == "float" && k == "int"):
			kind = "float"
		default:
			return d.stringType
		}
	}

	switch kind {
	case "int":
		return d.intType
	case "float":
		return d.floatType
	case "bool":
		return d.boolType
	case "time":
		return d.timeType
	case "bytes":
		return d.bytesType
	default:
		return d.stringType
	}
}

func valueKind(v any) string {
	switch v.(type) {
	case time.Time:
		return "time"
	case []byte:
		return "bytes"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	default:
		return "string"
	}
}
