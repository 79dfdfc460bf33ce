package storage

import "errors"

// Error kinds returned at the wrapper boundary. Service faults that map to a
// kind keep the underlying error in the chain.
var (
	// ErrNoMatch indicates a search found no object.
	ErrNoMatch = errors.New("no matching object")

	// ErrMultipleMatches indicates a search matched in more than one bucket.
	ErrMultipleMatches = errors.New("more than one matching object")

	// ErrFileExists indicates the download destination already exists.
	ErrFileExists = errors.New("file already exists")

	// ErrFileNotFound indicates a local file is missing.
	ErrFileNotFound = errors.New("file not found")

	// ErrBucketNotFound indicates the bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrObjectNotFound indicates the object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketExists indicates the bucket name is already taken.
	ErrBucketExists = errors.New("bucket already exists")

	// ErrInvalidBucketName indicates a name outside the service's naming rules.
	ErrInvalidBucketName = errors.New("invalid bucket name")
)
