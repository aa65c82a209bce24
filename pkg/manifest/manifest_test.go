package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `version: "1.0"
bucket: release-artifacts
prefix: /builds/v2
match:
  includes:
    - "**/*.tar.gz"
    - "checksums.txt"
  excludes:
    - "**/*.tmp"
upload:
  concurrency: 8
  spool_max_memory_bytes: 33554432
  uploads_per_second: 2.5
`

func TestLoadFromBytes(t *testing.T) {
	m, err := LoadFromBytes([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "1.0", m.Version)
	assert.Equal(t, "release-artifacts", m.Bucket)
	assert.Equal(t, "/builds/v2", m.Prefix)
	assert.Equal(t, []string{"**/*.tar.gz", "checksums.txt"}, m.Match.Includes)
	assert.Equal(t, []string{"**/*.tmp"}, m.Match.Excludes)
	assert.Equal(t, 8, m.Upload.Concurrency)
	assert.EqualValues(t, 33554432, m.Upload.SpoolMaxMemoryBytes)
	assert.Equal(t, 2.5, m.Upload.UploadsPerSecond)
}

func TestLoadFromBytes_Minimal(t *testing.T) {
	m, err := LoadFromBytes([]byte("version: \"1.0\"\nbucket: b\n"))
	require.NoError(t, err)
	assert.Equal(t, "b", m.Bucket)
	assert.Empty(t, m.Prefix)
	assert.Empty(t, m.Match.Includes)
}

func TestLoadFromBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "empty",
			data:    "",
			wantErr: "manifest file is empty",
		},
		{
			name:    "missing bucket",
			data:    "version: \"1.0\"\n",
			wantErr: "bucket is required",
		},
		{
			name:    "wrong version",
			data:    "version: \"2.0\"\nbucket: b\n",
			wantErr: "unsupported manifest version",
		},
		{
			name:    "unknown field",
			data:    "version: \"1.0\"\nbucket: b\nbuckets: oops\n",
			wantErr: "invalid manifest",
		},
		{
			name:    "not yaml",
			data:    "{{{",
			wantErr: "invalid manifest",
		},
		{
			name:    "negative concurrency",
			data:    "version: \"1.0\"\nbucket: b\nupload:\n  concurrency: -1\n",
			wantErr: "upload.concurrency must not be negative",
		},
		{
			name:    "negative rate",
			data:    "version: \"1.0\"\nbucket: b\nupload:\n  uploads_per_second: -1\n",
			wantErr: "upload.uploads_per_second must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "push.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "release-artifacts", m.Bucket)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest file not found")
}
