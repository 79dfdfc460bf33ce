package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// maxDeleteBatch is the per-request key limit of the bulk delete call.
const maxDeleteBatch = 1000

// Exec runs object-store operations against a provider. It holds no state
// besides the provider and is not safe for concurrent use.
type Exec struct {
	provider Provider
}

// NewExec creates an Exec over provider.
func NewExec(provider Provider) (*Exec, error) {
	if provider == nil {
		return nil, fmt.Errorf("storage provider is required")
	}
	return &Exec{provider: provider}, nil
}

// Provider returns the underlying provider.
func (e *Exec) Provider() Provider {
	return e.provider
}

// ListBuckets returns every bucket of the account.
func (e *Exec) ListBuckets(ctx context.Context) ([]Bucket, error) {
	buckets, err := e.provider.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	return buckets, nil
}

// ListFiles lists the objects of a bucket. Failures are logged and reported
// in Listing.Err instead of being returned.
func (e *Exec) ListFiles(ctx context.Context, bucket string) Listing {
	objects, err := e.provider.ListObjects(ctx, bucket)
	if err != nil {
		slog.Warn("listing bucket failed", "bucket", bucket, "provider", e.provider.Name(), "error", err)
		return Listing{Bucket: bucket, Objects: []ObjectInfo{}, Err: err}
	}
	return Listing{Bucket: bucket, Objects: objects}
}

// SearchFiles scans every object of every bucket for keys containing substr
// (case-sensitive). The result holds one entry per bucket with a match: the
// last matching object listed in that bucket.
func (e *Exec) SearchFiles(ctx context.Context, substr string) (Matches, error) {
	buckets, err := e.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}

	var matches Matches
	for _, bucket := range buckets {
		listing := e.ListFiles(ctx, bucket.Name)
		if !listing.OK() {
			continue
		}

		var (
			last  ObjectInfo
			found bool
		)
		for _, obj := range listing.Objects {
			if strings.Contains(obj.Key, substr) {
				last, found = obj, true
			}
		}
		if found {
			matches = append(matches, Match{Bucket: bucket, Object: last})
		}
	}

	slog.Debug("object search complete", "substring", substr, "buckets", len(buckets), "matches", len(matches))
	return matches, nil
}

// CheckMatches returns the sole match, ErrMultipleMatches when more than one
// bucket matched, or ErrNoMatch when nothing did.
func CheckMatches(matches Matches, substr string) (Match, error) {
	switch len(matches) {
	case 0:
		return Match{}, fmt.Errorf("%w: no object key contains %q", ErrNoMatch, substr)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Bucket.Name + "/" + m.Object.Key
		}
		return Match{}, fmt.Errorf("%w: %q found in %s", ErrMultipleMatches, substr, strings.Join(names, ", "))
	}
}

// DownloadFileMatch downloads the single object whose key contains substr.
func (e *Exec) DownloadFileMatch(ctx context.Context, substr, outPath string, overwrite bool) (Match, error) {
	matches, err := e.SearchFiles(ctx, substr)
	if err != nil {
		return Match{}, err
	}

	match, err := CheckMatches(matches, substr)
	if err != nil {
		return Match{}, err
	}

	if err := e.DownloadFile(ctx, outPath, match.Bucket.Name, match.Object.Key, overwrite); err != nil {
		return Match{}, err
	}
	return match, nil
}

// DownloadFile writes the content of bucket/key to outPath. An existing
// destination is left untouched and ErrFileExists returned unless overwrite
// is set. A file created by a failed download is removed.
func (e *Exec) DownloadFile(ctx context.Context, outPath, bucket, key string, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	// #nosec G304 -- destination chosen by the caller
	f, err := os.OpenFile(outPath, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s (set overwrite to replace it)", ErrFileExists, outPath)
		}
		return fmt.Errorf("opening %s: %w", outPath, err)
	}

	n, err := e.provider.GetObject(ctx, bucket, key, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing %s: %w", outPath, closeErr)
	}
	if err != nil {
		if !overwrite {
			_ = os.Remove(outPath)
		}
		return fmt.Errorf("downloading %s/%s: %w", bucket, key, err)
	}

	slog.Info("downloaded object", "bucket", bucket, "key", key, "path", outPath, "bytes", n)
	return nil
}

// BucketOption configures CreateBucket.
type BucketOption func(*bucketOptions)

type bucketOptions struct {
	versioning bool
	provider   Provider
}

// WithVersioning controls whether versioning is enabled on the new bucket.
// Versioning is on by default.
func WithVersioning(enabled bool) BucketOption {
	return func(o *bucketOptions) {
		o.versioning = enabled
	}
}

// WithProvider creates the bucket through p instead of the Exec's provider.
func WithProvider(p Provider) BucketOption {
	return func(o *bucketOptions) {
		o.provider = p
	}
}

// CreateBucketName appends a random UUID to prefix.
func (*Exec) CreateBucketName(prefix string) string {
	return CreateBucketName(prefix)
}

// CreateBucket creates a uniquely named bucket in the provider's region and
// returns its name with the service response.
func (e *Exec) CreateBucket(ctx context.Context, prefix string, opts ...BucketOption) (string, *BucketCreation, error) {
	o := bucketOptions{versioning: true, provider: e.provider}
	for _, opt := range opts {
		opt(&o)
	}

	name := CreateBucketName(prefix)
	if err := ValidateBucketName(name); err != nil {
		return "", nil, err
	}

	region := e.provider.Region()
	created, err := o.provider.CreateBucket(ctx, name, region)
	if err != nil {
		return "", nil, fmt.Errorf("creating bucket %s: %w", name, err)
	}

	if o.versioning {
		if err := o.provider.EnableVersioning(ctx, name); err != nil {
			return name, created, fmt.Errorf("enabling versioning on %s: %w", name, err)
		}
	}

	slog.Info("created bucket", "bucket", name, "region", region, "versioning", o.versioning)
	return name, created, nil
}

// GenerateRandomFilename prefixes name with a short random hex token.
func (*Exec) GenerateRandomFilename(name string) string {
	return GenerateRandomFilename(name)
}

// RenameExistingFile renames a local file to a random ".csv" name.
func (*Exec) RenameExistingFile(path string) (string, error) {
	return RenameExistingFile(path)
}

// DeleteObject deletes the current object stored under exactly key. In a
// versioned bucket this leaves a delete marker and keeps older versions.
func (e *Exec) DeleteObject(ctx context.Context, bucket, key string) error {
	result, err := e.provider.DeleteObjects(ctx, bucket, []ObjectVersion{{Key: key}})
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", bucket, key, err)
	}
	if len(result.Errors) > 0 {
		de := result.Errors[0]
		return fmt.Errorf("deleting %s/%s: %s: %s", bucket, key, de.Code, de.Message)
	}
	return nil
}

// DeleteAllObjects deletes every object version and delete marker in a
// bucket. Versions are sent in batches of the service's per-request limit.
func (e *Exec) DeleteAllObjects(ctx context.Context, bucket string) (*DeleteResult, error) {
	versions, err := e.provider.ListObjectVersions(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", bucket, err)
	}

	result := &DeleteResult{Deleted: make([]ObjectVersion, 0, len(versions))}
	for start := 0; start < len(versions); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(versions))
		batch, err := e.provider.DeleteObjects(ctx, bucket, versions[start:end])
		if err != nil {
			return result, fmt.Errorf("deleting versions of %s: %w", bucket, err)
		}
		result.Deleted = append(result.Deleted, batch.Deleted...)
		result.Errors = append(result.Errors, batch.Errors...)
	}

	if len(result.Errors) > 0 {
		return result, fmt.Errorf("deleting versions of %s: %d of %d failed", bucket, len(result.Errors), len(versions))
	}

	slog.Info("emptied bucket", "bucket", bucket, "versions", len(result.Deleted))
	return result, nil
}

// Close releases the provider.
func (e *Exec) Close() error {
	return e.provider.Close()
}
