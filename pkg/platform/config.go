// Package platform wires configuration, the database handle and the object
// store into ready-to-use executors.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/txn2/dataexec/pkg/credentials"
	"github.com/txn2/dataexec/pkg/database"
)

// CurrentConfigVersion is the config API version this build reads.
const CurrentConfigVersion = "v1"

// Storage provider names.
const (
	ProviderS3     = "s3"
	ProviderMemory = "memory"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvRegion        = "AWS_REGION"
	EnvDefaultRegion = "AWS_DEFAULT_REGION"
	EnvEndpoint      = "AWS_ENDPOINT_URL"
	EnvDriver        = "RDS_DRIVER"
	EnvUser          = "RDS_USER"
	EnvPassword      = "RDS_PASS"
	EnvHost          = "RDS_HOST"
	EnvPort          = "RDS_PORT"
	EnvName          = "RDS_DB"
	EnvSSLMode       = "RDS_SSLMODE"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultConnLifetime = 30 * time.Minute
	maxPort             = 65535
)

// Config holds the complete configuration.
type Config struct {
	APIVersion string         `yaml:"apiVersion"`
	Database   DatabaseConfig `yaml:"database"`
	Storage    StorageConfig  `yaml:"storage"`
}

// DatabaseConfig configures the relational database.
type DatabaseConfig struct {
	database.Params `yaml:",inline"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	// Verbose logs every statement at debug level.
	Verbose bool `yaml:"verbose"`
}

// Pool returns the pool settings.
func (c DatabaseConfig) Pool() database.PoolConfig {
	return database.PoolConfig{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// StorageConfig configures the object store.
type StorageConfig struct {
	Provider        string `yaml:"provider"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Credentials returns the static credentials, zero when unset.
func (c StorageConfig) Credentials() credentials.Credentials {
	return credentials.Credentials{AccessKeyID: c.AccessKeyID, SecretAccessKey: c.SecretAccessKey}
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the operator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.APIVersion != "" && cfg.APIVersion != CurrentConfigVersion {
		return nil, fmt.Errorf("unsupported config apiVersion %q (want %s)", cfg.APIVersion, CurrentConfigVersion)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// ConfigFromEnv builds a configuration from environment variables. Unset
// variables fall back to the defaults.
func ConfigFromEnv(lookup credentials.LookupFunc) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{APIVersion: CurrentConfigVersion}
	cfg.Database.Params = database.Params{
		Driver:   get(EnvDriver),
		User:     get(EnvUser),
		Password: get(EnvPassword),
		Host:     get(EnvHost),
		Name:     get(EnvName),
		SSLMode:  get(EnvSSLMode),
	}
	if port := get(EnvPort); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", EnvPort, err)
		}
		cfg.Database.Port = n
	}

	cfg.Storage.Region = get(EnvRegion)
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = get(EnvDefaultRegion)
	}
	if endpoint := get(EnvEndpoint); endpoint != "" {
		cfg.Storage.Endpoint = endpoint
		cfg.Storage.PathStyle = true
	}

	creds, err := credentials.FromLookup(lookup)
	switch {
	case err == nil:
		cfg.Storage.AccessKeyID = creds.AccessKeyID
		cfg.Storage.SecretAccessKey = creds.SecretAccessKey
	case get(credentials.EnvAccessKeyID) != "" || get(credentials.EnvSecretAccessKey) != "":
		// half a pair is a mistake; no pair means the SDK chain
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = CurrentConfigVersion
	}
	cfg.Database.Params = cfg.Database.Merge(database.Defaults())
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = defaultConnLifetime
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = ProviderS3
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	driver, err := c.Database.DriverName()
	switch {
	case err != nil:
		errs = append(errs, err.Error())
	case driver == database.DriverPostgres && (c.Database.Port < 1 || c.Database.Port > maxPort):
		errs = append(errs, fmt.Sprintf("database.port %d is out of range", c.Database.Port))
	}
	if c.Database.Name == "" {
		errs = append(errs, "database.name is required")
	}

	switch c.Storage.Provider {
	case ProviderS3, ProviderMemory:
	default:
		errs = append(errs, fmt.Sprintf("storage.provider %q is not one of s3, memory", c.Storage.Provider))
	}
	if (c.Storage.AccessKeyID == "") != (c.Storage.SecretAccessKey == "") {
		errs = append(errs, "storage.access_key_id and storage.secret_access_key must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
