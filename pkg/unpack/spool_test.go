package unpack

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpooledBody_InMemory(t *testing.T) {
	body, err := newSpooledBody(strings.NewReader("test"), 1024)
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	assert.EqualValues(t, 4, body.Len())

	data, err := io.ReadAll(body.Reader())
	require.NoError(t, err)
	assert.Equal(t, "test", string(data))

	// Seekable for SDK retries.
	_, err = body.Reader().Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err = io.ReadAll(body.Reader())
	require.NoError(t, err)
	assert.Equal(t, "test", string(data))
}

func TestSpooledBody_SpillsToDisk(t *testing.T) {
	payload := strings.Repeat("x", 100)

	body, err := newSpooledBody(strings.NewReader(payload), 16)
	require.NoError(t, err)

	assert.EqualValues(t, 100, body.Len())

	data, err := io.ReadAll(body.Reader())
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	require.NoError(t, body.Close())
}

func TestSpooledBody_ExactBoundaryStaysInMemory(t *testing.T) {
	payload := strings.Repeat("y", 16)

	body, err := newSpooledBody(strings.NewReader(payload), 16)
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	assert.EqualValues(t, 16, body.Len())
	data, err := io.ReadAll(body.Reader())
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestSpooledBody_PropagatesReadError(t *testing.T) {
	_, err := newSpooledBody(io.LimitReader(failingReader{}, 10), 1024)
	require.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
