package miner

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExclude skips hidden files and directories.
var DefaultExclude = []string{"**/.*", "**/.*/**"}

// Filter selects files by doublestar patterns over slash-separated paths
// relative to a root.
type Filter struct {
	Include []string
	Exclude []string
}

// Match reports whether rel is included and not excluded. An empty Include
// list includes everything.
func (f Filter) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range f.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// SkipDir reports whether a directory can be pruned: it is excluded, or
// nothing below it could be included.
func (f Filter) SkipDir(rel string) bool {
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}
	for _, pattern := range f.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Validate checks every pattern.
func (f Filter) Validate() error {
	for _, pattern := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return &PatternError{Pattern: pattern}
		}
	}
	return nil
}

// PatternError reports a malformed pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "invalid pattern: " + e.Pattern
}
