// Package credentials resolves object-store access keys from the process
// environment and writes the shared credentials file used by AWS tooling.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names holding the access key pair.
const (
	EnvAccessKeyID     = "AWSAccessKeyId"
	EnvSecretAccessKey = "AWSSecretKey"
)

// ErrMissingCredentials is returned when the access key pair is not set.
var ErrMissingCredentials = errors.New("credentials: access key id and secret access key are required")

// Credentials holds an access key pair.
type Credentials struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// IsZero reports whether neither key is set.
func (c Credentials) IsZero() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == ""
}

// String masks the secret so credentials can be logged.
func (c Credentials) String() string {
	if c.IsZero() {
		return "credentials(empty)"
	}
	return fmt.Sprintf("credentials(%s/****)", c.AccessKeyID)
}

// LoadDotEnv populates the environment from .env files. Variables already
// present in the environment win. A missing default .env is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv reads the access key pair from the process environment.
func FromEnv() (Credentials, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the access key pair through lookup. Both keys must be set.
func FromLookup(lookup LookupFunc) (Credentials, error) {
	id, okID := lookup(EnvAccessKeyID)
	secret, okSecret := lookup(EnvSecretAccessKey)

	var missing []string
	if !okID || id == "" {
		missing = append(missing, EnvAccessKeyID)
	}
	if !okSecret || secret == "" {
		missing = append(missing, EnvSecretAccessKey)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s not set", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	return Credentials{AccessKeyID: id, SecretAccessKey: secret}, nil
}

// SharedFilePath returns the default shared credentials file under home.
func SharedFilePath(home string) string {
	return filepath.Join(home, ".aws", "credentials")
}

// WriteSharedFile writes creds as the [default] profile of the shared
// credentials file at path, replacing any existing content.
func WriteSharedFile(path string, creds Credentials) error {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return ErrMissingCredentials
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	content := fmt.Sprintf("[default]\naws_access_key_id=%s\naws_secret_access_key=%s\n",
		creds.AccessKeyID, creds.SecretAccessKey)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}

	slog.Info("wrote shared credentials file", "path", path, "access_key_id", creds.AccessKeyID)
	return nil
}
