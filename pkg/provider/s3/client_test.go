package s3

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/zipcourier/pkg/provider"
)

// mockAPIError implements smithy.APIError for testing error code mapping.
type mockAPIError struct {
	code    string
	message string
}

func (e *mockAPIError) Error() string                 { return fmt.Sprintf("%s: %s", e.code, e.message) }
func (e *mockAPIError) ErrorCode() string             { return e.code }
func (e *mockAPIError) ErrorMessage() string          { return e.message }
func (e *mockAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

var _ smithy.APIError = (*mockAPIError)(nil)

func TestClient_WrapError(t *testing.T) {
	c := &Client{bucket: "my-bucket"}

	tests := []struct {
		code string
		want error
	}{
		{code: "NoSuchBucket", want: provider.ErrBucketNotFound},
		{code: "AccessDenied", want: provider.ErrAccessDenied},
		{code: "Forbidden", want: provider.ErrAccessDenied},
		{code: "InvalidAccessKeyId", want: provider.ErrInvalidCredentials},
		{code: "SignatureDoesNotMatch", want: provider.ErrInvalidCredentials},
		{code: "SlowDown", want: provider.ErrThrottled},
		{code: "ServiceUnavailable", want: provider.ErrProviderUnavailable},
		{code: "InternalError", want: provider.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := c.wrapError("Upload", "some/key", &mockAPIError{code: tt.code, message: "nope"})
			require.ErrorIs(t, err, tt.want)

			var perr *provider.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "Upload", perr.Op)
			assert.Equal(t, "my-bucket", perr.Bucket)
			assert.Equal(t, "some/key", perr.Key)
		})
	}
}

func TestClient_WrapErrorUnknownCode(t *testing.T) {
	c := &Client{bucket: "my-bucket"}
	cause := &mockAPIError{code: "SomethingNew", message: "?"}

	err := c.wrapError("Upload", "k", cause)

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, cause)
}

func TestCleanETag(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", cleanETag(`"d41d8cd98f00b204e9800998ecf8427e"`))
	assert.Equal(t, "abc", cleanETag("abc"))
	assert.Equal(t, "", cleanETag(""))
}

func TestResolveRegion(t *testing.T) {
	assert.Equal(t, "eu-west-1", resolveRegion("", "eu-west-1"))
	assert.Equal(t, DefaultAWSRegion, resolveRegion("", ""))
	assert.Equal(t, "", resolveRegion("https://minio.local:9000", ""))
	assert.Equal(t, "us-west-2", resolveRegion("https://minio.local:9000", "us-west-2"))
}

func TestCountingReader(t *testing.T) {
	cr := &countingReader{r: strings.NewReader("12345678")}

	buf := make([]byte, 3)
	total := 0
	for {
		n, err := cr.Read(buf)
		total += n
		if err != nil {
			break
		}
	}

	assert.Equal(t, 8, total)
	assert.EqualValues(t, 8, cr.n)
}
