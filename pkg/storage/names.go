package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	minBucketNameLen = 3
	maxBucketNameLen = 63
	randomTokenLen   = 6
)

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// CreateBucketName appends a random UUID to prefix. A UUID is 36
// characters, so prefix can be at most 27 characters long.
func CreateBucketName(prefix string) string {
	return prefix + uuid.NewString()
}

// ValidateBucketName checks the S3 naming rules: 3 to 63 characters of
// lowercase letters, digits, dots and hyphens, starting and ending with a
// letter or digit.
func ValidateBucketName(name string) error {
	if n := len(name); n < minBucketNameLen || n > maxBucketNameLen {
		return fmt.Errorf("%w: %q is %d characters, want %d-%d",
			ErrInvalidBucketName, name, n, minBucketNameLen, maxBucketNameLen)
	}
	if !bucketNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidBucketName, name)
	}
	return nil
}

// GenerateRandomFilename prefixes name with a short random hex token.
// The token only avoids accidental collisions.
func GenerateRandomFilename(name string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:randomTokenLen]
	return token + "_" + name
}

// RenameExistingFile moves the file at path out of the way, renaming it to
// "<random>_<stem>.csv" in the same directory, where stem is the base name
// up to its first dot. It returns the new path.
func RenameExistingFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("checking %s: %w", path, err)
	}

	stem, _, _ := strings.Cut(filepath.Base(path), ".")
	renamed := filepath.Join(filepath.Dir(path), GenerateRandomFilename(stem)+".csv")

	if err := os.Rename(path, renamed); err != nil {
		return "", fmt.Errorf("renaming %s: %w", path, err)
	}
	return renamed, nil
}
