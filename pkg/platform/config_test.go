package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/txn2/dataexec/pkg/database"
)

const (
	cfgTestFilePerms  = 0o600
	cfgTestRegion     = "eu-central-1"
	cfgTestCustomPort = 6543
)

// writeTestConfig writes a YAML config to a temp dir and returns the path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), cfgTestFilePerms); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")
	path := writeTestConfig(t, `apiVersion: v1
database:
  driver: postgres
  user: analyst
  password: ${TEST_DB_PASSWORD}
  host: db.internal
  port: 6543
  name: warehouse
  sslmode: require
  max_open_conns: 4
  conn_max_lifetime: 5m
  verbose: true
storage:
  provider: s3
  region: eu-central-1
  endpoint: http://localhost:4566
  path_style: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	db := cfg.Database
	if db.Password != "s3cret" {
		t.Errorf("expected expanded password, got %q", db.Password)
	}
	if db.User != "analyst" || db.Host != "db.internal" || db.Port != cfgTestCustomPort || db.Name != "warehouse" {
		t.Errorf("unexpected database params %+v", db.Params)
	}
	if db.SSLMode != "require" || !db.Verbose {
		t.Errorf("unexpected database options %+v", db)
	}
	pool := db.Pool()
	if pool.MaxOpenConns != 4 || pool.MaxIdleConns != defaultMaxIdleConns || pool.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("unexpected pool %+v", pool)
	}
	if cfg.Storage.Region != cfgTestRegion || !cfg.Storage.PathStyle || cfg.Storage.Endpoint != "http://localhost:4566" {
		t.Errorf("unexpected storage %+v", cfg.Storage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIVersion != CurrentConfigVersion {
		t.Errorf("expected apiVersion %s, got %q", CurrentConfigVersion, cfg.APIVersion)
	}
	if cfg.Database.Params != database.Defaults() {
		t.Errorf("expected default params, got %+v", cfg.Database.Params)
	}
	if cfg.Database.MaxOpenConns != defaultMaxOpenConns {
		t.Errorf("expected %d max open conns, got %d", defaultMaxOpenConns, cfg.Database.MaxOpenConns)
	}
	if cfg.Storage.Provider != ProviderS3 {
		t.Errorf("expected s3 provider by default, got %q", cfg.Storage.Provider)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeTestConfig(t, "database: [1, 2")); err == nil {
		t.Error("expected error for invalid YAML")
	}
	_, err := LoadConfig(writeTestConfig(t, "apiVersion: v9\n"))
	if err == nil || !strings.Contains(err.Error(), "unsupported config apiVersion") {
		t.Errorf("expected apiVersion error, got %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DATAEXEC_TEST_HOST", "pg")
	got := expandEnvVars("host: ${DATAEXEC_TEST_HOST}, other: ${DATAEXEC_TEST_UNSET}")
	if got != "host: pg, other: " {
		t.Errorf("unexpected expansion %q", got)
	}
}

func TestConfigFromEnv(t *testing.T) {
	cfg, err := ConfigFromEnv(mapLookup(map[string]string{
		EnvDriver:          "postgres",
		EnvUser:            "etl",
		EnvPassword:        "pw",
		EnvHost:            "10.0.0.5",
		EnvPort:            "6543",
		EnvName:            "analytics",
		EnvSSLMode:         "disable",
		EnvDefaultRegion:   cfgTestRegion,
		EnvEndpoint:        "http://minio:9000",
		"AWSAccessKeyId":   "AKIA",
		"AWSSecretKey":     "secret",
		"UNRELATED_SECRET": "ignored",
	}))
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}

	want := database.Params{
		Driver: "postgres", User: "etl", Password: "pw", Host: "10.0.0.5",
		Port: cfgTestCustomPort, Name: "analytics", SSLMode: "disable",
	}
	if cfg.Database.Params != want {
		t.Errorf("unexpected params %+v", cfg.Database.Params)
	}
	if cfg.Storage.Region != cfgTestRegion {
		t.Errorf("expected fallback region, got %q", cfg.Storage.Region)
	}
	if !cfg.Storage.PathStyle || cfg.Storage.Endpoint != "http://minio:9000" {
		t.Errorf("expected endpoint with path style, got %+v", cfg.Storage)
	}
	if creds := cfg.Storage.Credentials(); creds.AccessKeyID != "AKIA" || creds.SecretAccessKey != "secret" {
		t.Errorf("unexpected credentials %v", creds)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv(mapLookup(map[string]string{EnvRegion: "us-east-1", EnvDefaultRegion: "ignored"}))
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.Database.Params != database.Defaults() {
		t.Errorf("expected defaults, got %+v", cfg.Database.Params)
	}
	if cfg.Storage.Region != "us-east-1" {
		t.Errorf("expected AWS_REGION to win, got %q", cfg.Storage.Region)
	}
	if !cfg.Storage.Credentials().IsZero() {
		t.Error("expected no static credentials")
	}
}

func TestConfigFromEnvErrors(t *testing.T) {
	if _, err := ConfigFromEnv(mapLookup(map[string]string{EnvPort: "abc"})); err == nil {
		t.Error("expected error for non-numeric port")
	}
	if _, err := ConfigFromEnv(mapLookup(map[string]string{"AWSAccessKeyId": "AKIA"})); err == nil {
		t.Error("expected error for half a key pair")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "memory provider", mutate: func(c *Config) { c.Storage.Provider = ProviderMemory }},
		{
			name:   "sqlite ignores port",
			mutate: func(c *Config) { c.Database.Driver = database.DriverSQLite; c.Database.Port = 0 },
		},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: "unsupported database driver"},
		{name: "bad port", mutate: func(c *Config) { c.Database.Port = 70000 }, wantErr: "database.port"},
		{name: "no name", mutate: func(c *Config) { c.Database.Name = "" }, wantErr: "database.name"},
		{name: "bad provider", mutate: func(c *Config) { c.Storage.Provider = "gcs" }, wantErr: "storage.provider"},
		{name: "half keys", mutate: func(c *Config) { c.Storage.AccessKeyID = "AKIA" }, wantErr: "must be set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
