// Package provider defines the object-storage capability consumed by the
// unpack pipeline.
//
// The pipeline needs exactly one write-side operation: stream a byte
// sequence into a keyed object and report what the store recorded.
// Implementations own their own client and credentials; one Uploader is
// created per pipeline run and never shared across runs.
package provider

import (
	"context"
	"io"
)

// Uploader streams objects into a single bucket.
//
// Implementations should:
//   - Stream the body without requiring it to be fully resident
//   - Be safe for concurrent Upload calls
//   - Leave retry policy to the underlying SDK
type Uploader interface {
	// Upload writes body to the given key and returns the stored
	// object's coordinates. size is a hint in bytes; -1 means unknown.
	Upload(ctx context.Context, key string, body io.Reader, size int64) (*UploadResult, error)

	// Close releases any resources held by the uploader.
	Close() error
}

// UploadResult describes one successfully stored object.
type UploadResult struct {
	// Location is the final URL of the stored object.
	Location string

	// Bucket is the bucket the object was written to.
	Bucket string

	// Key is the full object key.
	Key string

	// ETag is the entity tag reported by the store, without quotes.
	ETag string

	// Size is the number of body bytes written.
	Size int64
}

// ProviderType identifies an object-storage backend.
type ProviderType string

const (
	// ProviderS3 represents AWS S3 or S3-compatible storage.
	ProviderS3 ProviderType = "s3"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}
