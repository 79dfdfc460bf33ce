package table

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Schema describes a table whose first column is a string primary key and
// whose remaining columns are strings.
type Schema struct {
	ClassName string
	TableName string
	Key       string
	Columns   []string // key first
}

// NewSchema builds a schema from an ordered column list.
func NewSchema(columns []string, tableName, className string) (*Schema, error) {
	if tableName == "" {
		return nil, fmt.Errorf("%w: table name", ErrEmptyName)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoColumns, tableName)
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("%w: column of %s", ErrEmptyName, tableName)
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate column %q in %s", c, tableName)
		}
		seen[c] = true
	}
	if className == "" {
		className = tableName
	}
	return &Schema{
		ClassName: className,
		TableName: tableName,
		Key:       columns[0],
		Columns:   slices.Clone(columns),
	}, nil
}

// Record builds a record for the schema from positional values.
func (s *Schema) Record(values ...any) (Record, error) {
	if len(values) != len(s.Columns) {
		return Record{}, fmt.Errorf("%s takes %d values, got %d", s.ClassName, len(s.Columns), len(values))
	}
	r := Record{Table: s.TableName, Values: make(map[string]any, len(values))}
	for i, c := range s.Columns {
		r.Values[c] = values[i]
	}
	return r, nil
}

func (s *Schema) createSQL() string {
	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		if c == s.Key {
			defs[i] = quote(c) + " TEXT NOT NULL PRIMARY KEY"
			continue
		}
		defs[i] = quote(c) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(s.TableName), strings.Join(defs, ", "))
}

// Metadata is a registry of schemas keyed by table name.
type Metadata struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	order   []string
}

// NewMetadata creates an empty registry.
func NewMetadata() *Metadata {
	return &Metadata{schemas: map[string]*Schema{}}
}

// Register adds s. A table can be registered once.
func (m *Metadata) Register(s *Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schemas[s.TableName]; ok {
		return fmt.Errorf("table %s is already defined", s.TableName)
	}
	m.schemas[s.TableName] = s
	m.order = append(m.order, s.TableName)
	return nil
}

// Lookup returns the schema registered for table.
func (m *Metadata) Lookup(table string) (*Schema, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schemas[table]
	return s, ok
}

// Schemas returns the registered schemas in registration order.
func (m *Metadata) Schemas() []*Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Schema, len(m.order))
	for i, name := range m.order {
		out[i] = m.schemas[name]
	}
	return out
}
