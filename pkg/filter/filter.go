// Package filter implements the per-entry transform stage of the unpack
// pipeline.
//
// A Filter sees every file entry decoded from the archive, in archive
// order, and may pass it through, rename it, rewrite its body, or drop it
// by returning a nil entry. Filters must not retain an entry past the
// Transform call: entry bodies are single-pass readers over the archive
// stream.
package filter

import (
	"context"
	"fmt"

	"github.com/3leaps/zipcourier/pkg/archive"
)

// Filter transforms one archive entry into zero or one entries.
type Filter interface {
	// Transform returns the entry to forward downstream, or nil to drop
	// it. Returning an error aborts the pipeline.
	Transform(ctx context.Context, entry *archive.Entry) (*archive.Entry, error)
}

// Func adapts a plain function to the Filter interface.
type Func func(ctx context.Context, entry *archive.Entry) (*archive.Entry, error)

// Transform implements Filter.
func (f Func) Transform(ctx context.Context, entry *archive.Entry) (*archive.Entry, error) {
	return f(ctx, entry)
}

// FilterError wraps a transform failure with the entry that triggered it.
type FilterError struct {
	// Path is the entry path handed to the filter.
	Path string

	// Err is the underlying transform error.
	Err error
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	return fmt.Sprintf("filter: %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FilterError) Unwrap() error {
	return e.Err
}

type identity struct{}

func (identity) Transform(_ context.Context, entry *archive.Entry) (*archive.Entry, error) {
	return entry, nil
}

// Identity returns the pass-through filter. It is the default when a
// caller supplies no filter of their own.
func Identity() Filter {
	return identity{}
}

// Rename returns a filter that rewrites each entry's path and forwards it.
func Rename(fn func(path string) string) Filter {
	return Func(func(_ context.Context, entry *archive.Entry) (*archive.Entry, error) {
		out := *entry
		out.Path = fn(entry.Path)
		return &out, nil
	})
}

// Chain composes filters left to right. An entry dropped or failed by any
// stage stops the chain.
func Chain(filters ...Filter) Filter {
	return Func(func(ctx context.Context, entry *archive.Entry) (*archive.Entry, error) {
		current := entry
		for _, f := range filters {
			next, err := f.Transform(ctx, current)
			if err != nil {
				return nil, err
			}
			if next == nil {
				return nil, nil
			}
			current = next
		}
		return current, nil
	})
}
