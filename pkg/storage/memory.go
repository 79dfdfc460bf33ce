package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"
)

// nullVersion is the version id of objects written while versioning is off.
const nullVersion = "null"

// MemoryProvider is an in-process Provider. Listings are ordered by name
// like the S3 API.
type MemoryProvider struct {
	mu      sync.RWMutex
	region  string
	buckets map[string]*memBucket
	seq     int
}

type memBucket struct {
	created    time.Time
	versioning bool
	objects    map[string][]memVersion // oldest first
}

type memVersion struct {
	id           string
	data         []byte
	modified     time.Time
	deleteMarker bool
}

// NewMemoryProvider creates an empty provider that reports region.
func NewMemoryProvider(region string) *MemoryProvider {
	return &MemoryProvider{region: region, buckets: map[string]*memBucket{}}
}

// Name returns the provider name.
func (*MemoryProvider) Name() string {
	return "memory"
}

// Region returns the configured region.
func (m *MemoryProvider) Region() string {
	return m.region
}

// Put stores data under bucket/key, adding a version when versioning is on.
func (m *MemoryProvider) Put(bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	b.write(key, memVersion{id: m.nextVersion(b), data: bytes.Clone(data), modified: time.Now().UTC()})
	return nil
}

// Versioning reports whether versioning is enabled on bucket.
func (m *MemoryProvider) Versioning(bucket string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[bucket]
	return ok && b.versioning
}

// ListBuckets lists buckets by name.
func (m *MemoryProvider) ListBuckets(_ context.Context) ([]Bucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Bucket, 0, len(names))
	for _, name := range names {
		created := m.buckets[name].created
		out = append(out, Bucket{Name: name, CreationDate: &created})
	}
	return out, nil
}

// ListObjects lists current objects by key.
func (m *MemoryProvider) ListObjects(_ context.Context, bucket string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}

	out := []ObjectInfo{}
	for _, key := range b.keys() {
		latest := b.objects[key][len(b.objects[key])-1]
		if latest.deleteMarker {
			continue
		}
		modified := latest.modified
		out = append(out, ObjectInfo{
			Key:          key,
			Bucket:       bucket,
			Size:         int64(len(latest.data)),
			LastModified: &modified,
		})
	}
	return out, nil
}

// GetObject copies the current content of bucket/key into w.
func (m *MemoryProvider) GetObject(_ context.Context, bucket, key string, w io.Writer) (int64, error) {
	m.mu.RLock()
	b, ok := m.buckets[bucket]
	if !ok {
		m.mu.RUnlock()
		return 0, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	versions := b.objects[key]
	if len(versions) == 0 || versions[len(versions)-1].deleteMarker {
		m.mu.RUnlock()
		return 0, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	data := versions[len(versions)-1].data
	m.mu.RUnlock()

	return io.Copy(w, bytes.NewReader(data))
}

// CreateBucket creates an empty bucket.
func (m *MemoryProvider) CreateBucket(_ context.Context, name, region string) (*BucketCreation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrBucketExists, name)
	}
	m.buckets[name] = &memBucket{created: time.Now().UTC(), objects: map[string][]memVersion{}}
	return &BucketCreation{Name: name, Location: "/" + name, Region: region}, nil
}

// EnableVersioning turns on versioning for bucket.
func (m *MemoryProvider) EnableVersioning(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	b.versioning = true
	return nil
}

// ListObjectVersions lists every version, newest first within a key.
func (m *MemoryProvider) ListObjectVersions(_ context.Context, bucket string) ([]ObjectVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}

	var out []ObjectVersion
	for _, key := range b.keys() {
		versions := b.objects[key]
		for i := len(versions) - 1; i >= 0; i-- {
			out = append(out, ObjectVersion{
				Key:          key,
				VersionID:    versions[i].id,
				IsLatest:     i == len(versions)-1,
				DeleteMarker: versions[i].deleteMarker,
			})
		}
	}
	return out, nil
}

// DeleteObjects removes the listed versions. An empty VersionID deletes the
// current object, leaving a delete marker when versioning is on.
func (m *MemoryProvider) DeleteObjects(_ context.Context, bucket string, objects []ObjectVersion) (*DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}

	result := &DeleteResult{}
	for _, obj := range objects {
		switch {
		case obj.VersionID != "":
			b.removeVersion(obj.Key, obj.VersionID)
		case b.versioning:
			b.write(obj.Key, memVersion{id: m.nextVersion(b), modified: time.Now().UTC(), deleteMarker: true})
		default:
			delete(b.objects, obj.Key)
		}
		result.Deleted = append(result.Deleted, obj)
	}
	return result, nil
}

// Close is a no-op.
func (*MemoryProvider) Close() error {
	return nil
}

func (m *MemoryProvider) nextVersion(b *memBucket) string {
	if !b.versioning {
		return nullVersion
	}
	m.seq++
	return strconv.Itoa(m.seq)
}

func (b *memBucket) keys() []string {
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (b *memBucket) write(key string, v memVersion) {
	if v.id == nullVersion {
		b.removeVersion(key, nullVersion)
	}
	b.objects[key] = append(b.objects[key], v)
}

func (b *memBucket) removeVersion(key, id string) {
	versions := slices.DeleteFunc(b.objects[key], func(v memVersion) bool { return v.id == id })
	if len(versions) == 0 {
		delete(b.objects, key)
		return
	}
	b.objects[key] = versions
}

// Verify interface compliance.
var _ Provider = (*MemoryProvider)(nil)
