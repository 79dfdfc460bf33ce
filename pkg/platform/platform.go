package platform

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/txn2/dataexec/pkg/database"
	"github.com/txn2/dataexec/pkg/health"
	"github.com/txn2/dataexec/pkg/storage"
	s3storage "github.com/txn2/dataexec/pkg/storage/s3"
	"github.com/txn2/dataexec/pkg/table"
)

// Platform is the main facade. The database and object store are connected
// on first use so commands only touch the services they need.
type Platform struct {
	config    *Config
	lifecycle *Lifecycle
	metadata  *table.Metadata

	mu       sync.Mutex
	db       *sql.DB
	provider storage.Provider
	tables   *table.Exec
	storage  *storage.Exec
}

// New creates a new platform instance.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}

	p := &Platform{
		config:    options.Config,
		lifecycle: NewLifecycle(),
		metadata:  options.Metadata,
		db:        options.DB,
		provider:  options.StorageProvider,
	}
	if p.metadata == nil {
		p.metadata = table.NewMetadata()
	}
	return p, nil
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Tables returns the table executor, opening the database on first use.
func (p *Platform) Tables(ctx context.Context) (*table.Exec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tables != nil {
		return p.tables, nil
	}
	if p.db == nil {
		db, err := database.Open(ctx, p.config.Database.Params, p.config.Database.Pool())
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		p.db = db
		p.lifecycle.RegisterCloser("database", db)
	}

	driver, err := p.config.Database.DriverName()
	if err != nil {
		return nil, err
	}
	exec, err := table.NewExec(p.db, driver,
		table.WithVerbose(p.config.Database.Verbose),
		table.WithMetadata(p.metadata),
	)
	if err != nil {
		return nil, fmt.Errorf("creating table executor: %w", err)
	}
	p.tables = exec
	return exec, nil
}

// Storage returns the object store executor, creating the provider on
// first use.
func (p *Platform) Storage(ctx context.Context) (*storage.Exec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.storage != nil {
		return p.storage, nil
	}
	if p.provider == nil {
		provider, err := p.createStorageProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating storage provider: %w", err)
		}
		p.provider = provider
		p.lifecycle.RegisterCloser("storage", provider)
	}

	exec, err := storage.NewExec(p.provider)
	if err != nil {
		return nil, err
	}
	p.storage = exec
	return exec, nil
}

func (p *Platform) createStorageProvider(ctx context.Context) (storage.Provider, error) {
	cfg := p.config.Storage
	switch cfg.Provider {
	case ProviderMemory:
		return storage.NewMemoryProvider(cfg.Region), nil
	case ProviderS3:
		adapter, err := s3storage.NewFromConfig(ctx, s3storage.Config{
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			AccessKeyID:  cfg.AccessKeyID,
			SecretKey:    cfg.SecretAccessKey,
			UsePathStyle: cfg.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		slog.Debug("s3 provider ready", "region", adapter.Region(), "endpoint", cfg.Endpoint, "static_credentials", cfg.AccessKeyID != "")
		return adapter, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// Check connects to the database and the object store and probes both: a
// ping for the database and a bucket listing for the store.
func (p *Platform) Check(ctx context.Context) health.Report {
	checker := health.NewChecker()
	checker.Register("database", func(ctx context.Context) error {
		tables, err := p.Tables(ctx)
		if err != nil {
			return err
		}
		return tables.DB().PingContext(ctx)
	})
	checker.Register("storage", func(ctx context.Context) error {
		exec, err := p.Storage(ctx)
		if err != nil {
			return err
		}
		_, err = exec.ListBuckets(ctx)
		return err
	})
	return checker.Run(ctx)
}

// Close releases the resources the platform opened.
func (p *Platform) Close() error {
	return p.lifecycle.Stop(context.Background())
}
