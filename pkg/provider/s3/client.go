package s3

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/3leaps/zipcourier/pkg/provider"
)

// Client implements provider.Uploader for AWS S3 and S3-compatible storage.
//
// Uploads go through the SDK's multipart upload manager: bodies are read
// in bounded part-sized chunks, parts are sent concurrently, and the SDK
// completes or aborts the multipart session. Client is safe for
// concurrent Upload calls.
type Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

var _ provider.Uploader = (*Client)(nil)

// New creates an S3 uploader with the given configuration.
//
// The client uses AWS SDK v2's default credential chain unless explicit
// credentials are provided in the config.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &provider.ProviderError{
			Op:       "New",
			Provider: provider.ProviderS3,
			Bucket:   cfg.Bucket,
			Err:      err,
		}
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
		},
	}

	// Custom endpoint for S3-compatible stores
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	partSize := cfg.PartSizeBytes
	if partSize <= 0 {
		partSize = DefaultPartSizeBytes
	}
	partConcurrency := cfg.PartConcurrency
	if partConcurrency <= 0 {
		partConcurrency = DefaultPartConcurrency
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = partSize
		u.Concurrency = partConcurrency
	})

	return &Client{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
	}, nil
}

// loadAWSConfig builds the AWS configuration with appropriate credentials.
func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	// Only apply explicit region if set; let SDK resolve from env/profile first.
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		staticCreds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (empty for long-term credentials)
		)
		opts = append(opts, config.WithCredentialsProvider(staticCreds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}

	awsCfg.Region = resolveRegion(cfg.Endpoint, awsCfg.Region)

	return awsCfg, nil
}

// Upload streams body into the bucket at key.
//
// The reported size is the number of bytes actually read from body, so
// callers get an exact count even when the size hint was unknown.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, size int64) (*provider.UploadResult, error) {
	_ = size // the multipart manager sizes parts from the stream itself

	counted := &countingReader{r: body}
	out, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   counted,
	})
	if err != nil {
		return nil, c.wrapError("Upload", key, err)
	}

	return &provider.UploadResult{
		Location: out.Location,
		Bucket:   c.bucket,
		Key:      key,
		ETag:     cleanETag(aws.ToString(out.ETag)),
		Size:     counted.n,
	}, nil
}

// Close releases any resources held by the client.
// The S3 client doesn't require explicit cleanup, but this satisfies the interface.
func (c *Client) Close() error {
	return nil
}

// wrapError converts S3 errors to provider errors with appropriate sentinel errors.
func (c *Client) wrapError(op, key string, err error) error {
	wrapped := &provider.ProviderError{
		Op:       op,
		Provider: provider.ProviderS3,
		Bucket:   c.bucket,
		Key:      key,
		Err:      err,
	}

	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		wrapped.Err = provider.ErrBucketNotFound
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			wrapped.Err = provider.ErrBucketNotFound
		case "AccessDenied", "Forbidden":
			wrapped.Err = provider.ErrAccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			wrapped.Err = provider.ErrInvalidCredentials
		case "SlowDown", "Throttling", "RequestLimitExceeded":
			wrapped.Err = provider.ErrThrottled
		case "ServiceUnavailable", "InternalError":
			wrapped.Err = provider.ErrProviderUnavailable
		}
	}

	return wrapped
}

// cleanETag removes surrounding quotes from an ETag value.
// S3 returns ETags with quotes, e.g., "d41d8cd98f00b204e9800998ecf8427e".
func cleanETag(etag string) string {
	return strings.Trim(etag, "\"")
}

// resolveRegion applies the fallback region after SDK config loading.
//
// The SDK has already resolved explicit config, environment, and profile
// regions at this point. For AWS S3 with no region anywhere, fall back to
// us-east-1; for S3-compatible stores (custom endpoint) leave it empty.
func resolveRegion(endpoint, sdkRegion string) string {
	if sdkRegion != "" {
		return sdkRegion
	}
	if endpoint == "" {
		return DefaultAWSRegion
	}
	return ""
}

// countingReader counts bytes as the upload manager drains the body.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
