// Package s3 provides an S3 implementation of the storage provider.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/txn2/dataexec/pkg/storage"
)

// defaultRegion is the region whose buckets take no location constraint.
const defaultRegion = "us-east-1"

// Config holds S3 adapter configuration.
type Config struct {
	Region       string
	Endpoint     string
	AccessKeyID  string
	SecretKey    string
	UsePathStyle bool
}

// S3API defines the S3 operations used by the adapter.
// This interface allows for mocking in tests.
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutBucketVersioning(ctx context.Context, params *s3.PutBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.PutBucketVersioningOutput, error)
	ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Adapter implements storage.Provider using S3.
type Adapter struct {
	cfg    Config
	client S3API
}

// New creates a new S3 adapter with an existing client.
func New(cfg Config, client S3API) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	return &Adapter{
		cfg:    cfg,
		client: client,
	}, nil
}

// NewFromConfig creates a new S3 adapter with a new client from config.
// Static credentials are used when an access key is set, otherwise the
// SDK default chain resolves them.
func NewFromConfig(ctx context.Context, cfg Config) (*Adapter, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = awsCfg.Region
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return New(cfg, client)
}

// Name returns the provider name.
func (*Adapter) Name() string {
	return "s3"
}

// Region returns the region new buckets are created in.
func (a *Adapter) Region() string {
	return a.cfg.Region
}

// ListBuckets lists all buckets of the account.
func (a *Adapter) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	var (
		out   []storage.Bucket
		token *string
	)
	for {
		resp, err := a.client.ListBuckets(ctx, &s3.ListBucketsInput{ContinuationToken: token})
		if err != nil {
			return nil, mapError(err)
		}
		for _, b := range resp.Buckets {
			out = append(out, storage.Bucket{
				Name:         aws.ToString(b.Name),
				CreationDate: b.CreationDate,
			})
		}
		if aws.ToString(resp.ContinuationToken) == "" {
			return out, nil
		}
		token = resp.ContinuationToken
	}
}

// ListObjects lists every object of bucket.
func (a *Adapter) ListObjects(ctx context.Context, bucket string) ([]storage.ObjectInfo, error) {
	out := []storage.ObjectInfo{}
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, obj := range page.Contents {
			out = append(out, storage.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Bucket:       bucket,
				Size:         aws.ToInt64(obj.Size),
				LastModified: obj.LastModified,
				ETag:         aws.ToString(obj.ETag),
			})
		}
	}
	return out, nil
}

// GetObject streams bucket/key into w.
func (a *Adapter) GetObject(ctx context.Context, bucket, key string, w io.Writer) (int64, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, mapError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("reading object body: %w", err)
	}
	return n, nil
}

// CreateBucket creates a bucket in region.
func (a *Adapter) CreateBucket(ctx context.Context, name, region string) (*storage.BucketCreation, error) {
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if region != "" && region != defaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	resp, err := a.client.CreateBucket(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}
	return &storage.BucketCreation{
		Name:     name,
		Location: aws.ToString(resp.Location),
		Region:   region,
	}, nil
}

// EnableVersioning turns on versioning for bucket.
func (a *Adapter) EnableVersioning(ctx context.Context, bucket string) error {
	_, err := a.client.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
		Bucket: aws.String(bucket),
		VersioningConfiguration: &types.VersioningConfiguration{
			Status: types.BucketVersioningStatusEnabled,
		},
	})
	return mapError(err)
}

// ListObjectVersions lists every version and delete marker of bucket.
func (a *Adapter) ListObjectVersions(ctx context.Context, bucket string) ([]storage.ObjectVersion, error) {
	var out []storage.ObjectVersion
	input := &s3.ListObjectVersionsInput{Bucket: aws.String(bucket)}
	for {
		resp, err := a.client.ListObjectVersions(ctx, input)
		if err != nil {
			return nil, mapError(err)
		}
		for _, v := range resp.Versions {
			out = append(out, storage.ObjectVersion{
				Key:       aws.ToString(v.Key),
				VersionID: aws.ToString(v.VersionId),
				IsLatest:  aws.ToBool(v.IsLatest),
			})
		}
		for _, m := range resp.DeleteMarkers {
			out = append(out, storage.ObjectVersion{
				Key:          aws.ToString(m.Key),
				VersionID:    aws.ToString(m.VersionId),
				IsLatest:     aws.ToBool(m.IsLatest),
				DeleteMarker: true,
			})
		}
		if !aws.ToBool(resp.IsTruncated) {
			return out, nil
		}
		input.KeyMarker = resp.NextKeyMarker
		input.VersionIdMarker = resp.NextVersionIdMarker
	}
}

// DeleteObjects deletes up to 1000 object versions in one request.
func (a *Adapter) DeleteObjects(ctx context.Context, bucket string, objects []storage.ObjectVersion) (*storage.DeleteResult, error) {
	ids := make([]types.ObjectIdentifier, 0, len(objects))
	for _, obj := range objects {
		id := types.ObjectIdentifier{Key: aws.String(obj.Key)}
		if obj.VersionID != "" {
			id.VersionId = aws.String(obj.VersionID)
		}
		ids = append(ids, id)
	}

	resp, err := a.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(false)},
	})
	if err != nil {
		return nil, mapError(err)
	}

	result := &storage.DeleteResult{}
	for _, d := range resp.Deleted {
		result.Deleted = append(result.Deleted, storage.ObjectVersion{
			Key:          aws.ToString(d.Key),
			VersionID:    aws.ToString(d.VersionId),
			DeleteMarker: aws.ToBool(d.DeleteMarker),
		})
	}
	for _, e := range resp.Errors {
		result.Errors = append(result.Errors, storage.DeleteError{
			Key:       aws.ToString(e.Key),
			VersionID: aws.ToString(e.VersionId),
			Code:      aws.ToString(e.Code),
			Message:   aws.ToString(e.Message),
		})
	}
	return result, nil
}

// Close releases resources. The SDK client holds none.
func (*Adapter) Close() error {
	return nil
}

// mapError tags service errors with the matching storage sentinel. The SDK
// error stays in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", storage.ErrBucketNotFound, err)
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %w", storage.ErrObjectNotFound, err)
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
		return fmt.Errorf("%w: %w", storage.ErrBucketExists, err)
	default:
		return err
	}
}

// Verify interface compliance.
var _ storage.Provider = (*Adapter)(nil)
