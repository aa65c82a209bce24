package filter

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/3leaps/zipcourier/pkg/archive"
)

// Glob drops entries whose paths fall outside a set of doublestar glob
// patterns.
//
// An entry passes when it matches at least one include pattern (or the
// include list is empty) and matches no exclude pattern. Matching uses
// the same `**` semantics as the rest of the toolchain.
type Glob struct {
	includes []string
	excludes []string
}

// NewGlob compiles include/exclude patterns into a Glob filter.
// Invalid patterns are rejected up front.
func NewGlob(includes, excludes []string) (*Glob, error) {
	for _, pat := range includes {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid include pattern: %q", pat)
		}
	}
	for _, pat := range excludes {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pat)
		}
	}
	return &Glob{includes: includes, excludes: excludes}, nil
}

// Transform implements Filter.
func (g *Glob) Transform(_ context.Context, entry *archive.Entry) (*archive.Entry, error) {
	if !g.match(entry.Path) {
		return nil, nil
	}
	return entry, nil
}

func (g *Glob) match(path string) bool {
	for _, pat := range g.excludes {
		if ok, _ := doublestar.Match(pat, path); ok {
			return false
		}
	}
	if len(g.includes) == 0 {
		return true
	}
	for _, pat := range g.includes {
		if ok, _ := doublestar.Match(pat, path); ok {
			return true
		}
	}
	return false
}
