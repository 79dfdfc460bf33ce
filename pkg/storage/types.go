// Package storage provides a thin object-store wrapper over pluggable providers.
package storage

import "time"

// Bucket is a named container in the object store.
type Bucket struct {
	Name         string     `json:"name"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
}

// ObjectInfo provides information about a storage object.
type ObjectInfo struct {
	Key          string     `json:"key"`
	Bucket       string     `json:"bucket"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	ETag         string     `json:"etag,omitempty"`
}

// ObjectVersion identifies one revision of an object, or a delete marker.
type ObjectVersion struct {
	Key          string `json:"key"`
	VersionID    string `json:"version_id,omitempty"`
	IsLatest     bool   `json:"is_latest,omitempty"`
	DeleteMarker bool   `json:"delete_marker,omitempty"`
}

// BucketCreation is the service's answer to a bucket creation request.
type BucketCreation struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Region   string `json:"region,omitempty"`
}

// DeleteError reports a key the service refused to delete.
type DeleteError struct {
	Key       string `json:"key"`
	VersionID string `json:"version_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// DeleteResult summarises a bulk delete.
type DeleteResult struct {
	Deleted []ObjectVersion `json:"deleted"`
	Errors  []DeleteError   `json:"errors,omitempty"`
}

// Listing is the outcome of listing one bucket. Err is set when the listing
// failed, in which case Objects is empty.
type Listing struct {
	Bucket  string       `json:"bucket"`
	Objects []ObjectInfo `json:"objects"`
	Err     error        `json:"-"`
}

// OK reports whether the listing succeeded.
func (l Listing) OK() bool {
	return l.Err == nil
}

// Match pairs a bucket with an object whose key matched a search.
type Match struct {
	Bucket Bucket     `json:"bucket"`
	Object ObjectInfo `json:"object"`
}

// Matches holds at most one match per bucket, in bucket listing order.
type Matches []Match

// Bucket returns the match recorded for the named bucket.
func (m Matches) Bucket(name string) (Match, bool) {
	for _, match := range m {
		if match.Bucket.Name == name {
			return match, true
		}
	}
	return Match{}, false
}
