// Package s3 implements the uploader capability for AWS S3 and
// S3-compatible storage.
package s3

// Config configures an S3 uploader.
//
// Authentication priority (AWS SDK v2 default chain):
//  1. Explicit AccessKeyID/SecretAccessKey (if provided)
//  2. Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
//  3. Shared credentials/config files
//  4. EC2 instance metadata / ECS task role / EKS IRSA
//
// For S3-compatible stores (Wasabi, MinIO, DigitalOcean Spaces), set
// Endpoint and typically ForcePathStyle.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string

	// Region is the AWS region.
	// For AWS S3: defaults to us-east-1 if not specified via config or environment.
	// For S3-compatible (when Endpoint is set): no default applied.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	// Leave empty for AWS S3.
	Endpoint string

	// AccessKeyID is an explicit access key. If set, SecretAccessKey must also be set.
	// This takes precedence over the default credential chain.
	AccessKeyID string

	// SecretAccessKey is an explicit secret key. Required if AccessKeyID is set.
	SecretAccessKey string

	// ForcePathStyle forces path-style URLs (bucket in path, not subdomain).
	// Required for most S3-compatible stores and useful for local development.
	ForcePathStyle bool

	// PartSizeBytes is the multipart upload part size.
	// Zero uses DefaultPartSizeBytes. Values below the S3 minimum (5 MiB)
	// are raised to the minimum by the SDK.
	PartSizeBytes int64

	// PartConcurrency is the number of parts uploaded in parallel per
	// object. Zero uses DefaultPartConcurrency.
	PartConcurrency int
}

// DefaultPartSizeBytes is the multipart part size used when none is configured.
const DefaultPartSizeBytes int64 = 5 << 20

// DefaultPartConcurrency is the per-object part parallelism used when none is configured.
const DefaultPartConcurrency = 5

// DefaultAWSRegion is the fallback region for AWS S3 when not specified.
const DefaultAWSRegion = "us-east-1"

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return &ConfigError{Field: "Bucket", Message: "bucket name is required"}
	}

	// If one explicit credential is set, both must be set
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &ConfigError{
			Field:   "AccessKeyID/SecretAccessKey",
			Message: "both access key ID and secret access key must be provided together",
		}
	}

	if c.PartSizeBytes < 0 {
		return &ConfigError{Field: "PartSizeBytes", Message: "part size must not be negative"}
	}
	if c.PartConcurrency < 0 {
		return &ConfigError{Field: "PartConcurrency", Message: "part concurrency must not be negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "s3 config: " + e.Field + ": " + e.Message
}
