package storage

import (
	"context"
	"io"
)

// Provider is the object-store capability set the wrapper needs.
// S3 implements this; MemoryProvider backs tests and dry runs.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Region returns the region new buckets are created in.
	Region() string

	// ListBuckets lists every bucket visible to the credentials.
	ListBuckets(ctx context.Context) ([]Bucket, error)

	// ListObjects lists every current object in a bucket.
	ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error)

	// GetObject streams an object's content into w.
	GetObject(ctx context.Context, bucket, key string, w io.Writer) (int64, error)

	// CreateBucket creates a bucket in region.
	CreateBucket(ctx context.Context, name, region string) (*BucketCreation, error)

	// EnableVersioning turns on object versioning for a bucket.
	EnableVersioning(ctx context.Context, bucket string) error

	// ListObjectVersions lists every version and delete marker in a bucket.
	ListObjectVersions(ctx context.Context, bucket string) ([]ObjectVersion, error)

	// DeleteObjects deletes the given versions in one request. An empty
	// VersionID deletes the current object.
	DeleteObjects(ctx context.Context, bucket string, objects []ObjectVersion) (*DeleteResult, error)

	// Close releases resources.
	Close() error
}
