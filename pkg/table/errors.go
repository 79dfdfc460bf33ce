package table

import "errors"

var (
	// ErrNameRequired is returned when a tabular payload has no destination table.
	ErrNameRequired = errors.New("a table name is required for tabular data")

	// ErrTableExists is returned by IfExistsFail when the table is present.
	ErrTableExists = errors.New("table already exists")

	// ErrUnknownTable is returned for records of a table with no registered schema.
	ErrUnknownTable = errors.New("no schema registered for table")

	// ErrNoColumns is returned for schemas or frames without columns.
	ErrNoColumns = errors.New("at least one column is required")

	// ErrEmptyName is returned for empty table or column names.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrIndexColumnExists is returned when a frame already holds both index column names.
	ErrIndexColumnExists = errors.New("frame already has index and level_0 columns")
)
