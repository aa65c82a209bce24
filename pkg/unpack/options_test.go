package unpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/zipcourier/pkg/filter"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(o *Options)
		wantField string
	}{
		{name: "missing access key", mutate: func(o *Options) { o.AccessKey = "" }, wantField: "AccessKey"},
		{name: "blank access key", mutate: func(o *Options) { o.AccessKey = "   " }, wantField: "AccessKey"},
		{name: "missing secret key", mutate: func(o *Options) { o.SecretKey = "" }, wantField: "SecretKey"},
		{name: "missing bucket", mutate: func(o *Options) { o.Bucket = "" }, wantField: "Bucket"},
		{name: "negative concurrency", mutate: func(o *Options) { o.Concurrency = -1 }, wantField: "Concurrency"},
		{name: "negative rate", mutate: func(o *Options) { o.UploadsPerSecond = -0.5 }, wantField: "UploadsPerSecond"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)

			_, err := opts.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestOptions_ValidateDefaults(t *testing.T) {
	got, err := testOptions().Validate()
	require.NoError(t, err)

	assert.Equal(t, "/", got.Prefix)
	assert.Equal(t, DefaultConcurrency, got.Concurrency)
	assert.Equal(t, DefaultSpoolMaxMemoryBytes, got.SpoolMaxMemoryBytes)
	assert.NotNil(t, got.Filter)
}

func TestOptions_ValidateKeepsExplicitValues(t *testing.T) {
	opts := testOptions()
	opts.Prefix = "/release"
	opts.Concurrency = 12
	opts.Filter = filter.Rename(func(p string) string { return p })

	got, err := opts.Validate()
	require.NoError(t, err)

	assert.Equal(t, "/release", got.Prefix)
	assert.Equal(t, 12, got.Concurrency)
	assert.NotNil(t, got.Filter)
}

func TestOptions_ValidateDoesNotMutateReceiver(t *testing.T) {
	opts := testOptions()
	_, err := opts.Validate()
	require.NoError(t, err)

	assert.Empty(t, opts.Prefix)
	assert.Zero(t, opts.Concurrency)
	assert.Nil(t, opts.Filter)
}
