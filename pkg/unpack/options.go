package unpack

import (
	"strings"

	"github.com/3leaps/zipcourier/pkg/filter"
)

// Defaults applied by Options.Validate.
const (
	// DefaultPrefix is the destination key prefix when none is configured.
	DefaultPrefix = "/"

	// DefaultConcurrency is the number of entry uploads in flight at once.
	DefaultConcurrency = 4

	// DefaultSpoolMaxMemoryBytes is how much of an entry body is held in
	// memory before spilling to a temp file.
	DefaultSpoolMaxMemoryBytes int64 = 16 << 20 // 16 MiB
)

// Options configures one pipeline run. Validate normalizes a copy;
// the validated value is not mutated afterwards.
type Options struct {
	// AccessKey is the object-storage access key (required).
	AccessKey string

	// SecretKey is the object-storage secret key (required).
	SecretKey string

	// Bucket is the destination bucket name (required).
	Bucket string

	// Prefix is prepended to every entry path to form the object key.
	// Defaults to "/".
	Prefix string

	// Filter transforms each file entry before upload. Nil means the
	// identity transform: every entry passes through unchanged.
	Filter filter.Filter

	// Region is the bucket's region. Optional; the SDK default chain
	// applies when empty.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	Endpoint string

	// ForcePathStyle forces path-style URLs for S3-compatible stores.
	ForcePathStyle bool

	// Concurrency bounds how many entry uploads run at once.
	// Defaults to DefaultConcurrency.
	Concurrency int

	// SpoolMaxMemoryBytes bounds the in-memory spool per entry body;
	// larger bodies spill to a temp file. Defaults to
	// DefaultSpoolMaxMemoryBytes.
	SpoolMaxMemoryBytes int64

	// UploadsPerSecond caps how fast new entry uploads may start.
	// Zero means unlimited.
	UploadsPerSecond float64
}

// ValidationError reports a rejected or missing option. It is returned
// before any network or filesystem activity.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "unpack options: " + e.Field + ": " + e.Message
}

// Validate checks required fields and returns a normalized copy with
// defaults applied. It is pure: no I/O, no mutation of the receiver.
func (o Options) Validate() (Options, error) {
	if strings.TrimSpace(o.AccessKey) == "" {
		return Options{}, &ValidationError{Field: "AccessKey", Message: "access key is required"}
	}
	if strings.TrimSpace(o.SecretKey) == "" {
		return Options{}, &ValidationError{Field: "SecretKey", Message: "secret key is required"}
	}
	if strings.TrimSpace(o.Bucket) == "" {
		return Options{}, &ValidationError{Field: "Bucket", Message: "bucket name is required"}
	}
	if o.Concurrency < 0 {
		return Options{}, &ValidationError{Field: "Concurrency", Message: "concurrency must not be negative"}
	}
	if o.UploadsPerSecond < 0 {
		return Options{}, &ValidationError{Field: "UploadsPerSecond", Message: "rate must not be negative"}
	}

	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Filter == nil {
		o.Filter = filter.Identity()
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.SpoolMaxMemoryBytes <= 0 {
		o.SpoolMaxMemoryBytes = DefaultSpoolMaxMemoryBytes
	}

	return o, nil
}
