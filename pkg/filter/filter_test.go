package filter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/zipcourier/pkg/archive"
)

func entry(path string) *archive.Entry {
	return &archive.Entry{
		Path: path,
		Type: archive.TypeFile,
		Size: 4,
		Body: strings.NewReader("test"),
	}
}

func TestIdentity(t *testing.T) {
	in := entry("a.txt")
	out, err := Identity().Transform(context.Background(), in)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestRename(t *testing.T) {
	f := Rename(func(path string) string { return "_" + path })

	in := entry("test.txt")
	out, err := f.Transform(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "_test.txt", out.Path)
	// The original entry is untouched; only the forwarded copy is renamed.
	assert.Equal(t, "test.txt", in.Path)
	assert.Same(t, in.Body, out.Body)
}

func TestFunc_Drop(t *testing.T) {
	f := Func(func(_ context.Context, e *archive.Entry) (*archive.Entry, error) {
		if e.Path == "test.txt" {
			return nil, nil
		}
		return e, nil
	})

	out, err := f.Transform(context.Background(), entry("test.txt"))
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = f.Transform(context.Background(), entry("test2.txt"))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "test2.txt", out.Path)
}

func TestChain(t *testing.T) {
	drop := Func(func(_ context.Context, e *archive.Entry) (*archive.Entry, error) {
		if strings.HasSuffix(e.Path, ".log") {
			return nil, nil
		}
		return e, nil
	})
	prefix := Rename(func(path string) string { return "out/" + path })

	chained := Chain(drop, prefix)

	out, err := chained.Transform(context.Background(), entry("a.txt"))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "out/a.txt", out.Path)

	out, err = chained.Transform(context.Background(), entry("debug.log"))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestChain_ErrorStopsChain(t *testing.T) {
	boom := errors.New("boom")
	failing := Func(func(context.Context, *archive.Entry) (*archive.Entry, error) {
		return nil, boom
	})
	var called bool
	after := Func(func(_ context.Context, e *archive.Entry) (*archive.Entry, error) {
		called = true
		return e, nil
	})

	_, err := Chain(failing, after).Transform(context.Background(), entry("a.txt"))
	require.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestFilterError(t *testing.T) {
	cause := errors.New("bad transform")
	err := &FilterError{Path: "a.txt", Err: cause}
	assert.Contains(t, err.Error(), "a.txt")
	assert.ErrorIs(t, err, cause)
}
