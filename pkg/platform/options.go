package platform

import (
	"database/sql"

	"github.com/txn2/dataexec/pkg/storage"
	"github.com/txn2/dataexec/pkg/table"
)

// Options configures the platform.
type Options struct {
	// Config is the platform configuration.
	Config *Config

	// DB (optional, opened from config on first use if not provided).
	// A provided handle is not closed by the platform.
	DB *sql.DB

	// StorageProvider (optional, created from config on first use if not provided).
	StorageProvider storage.Provider

	// Metadata (optional) shares a table schema registry.
	Metadata *table.Metadata
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithDB sets the database connection.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithStorageProvider sets the object store provider.
func WithStorageProvider(provider storage.Provider) Option {
	return func(o *Options) {
		o.StorageProvider = provider
	}
}

// WithMetadata sets the table schema registry.
func WithMetadata(m *table.Metadata) Option {
	return func(o *Options) {
		o.Metadata = m
	}
}
