// Package miner registers local files with embedded tag stores, the job a
// desktop indexer does for an external triple store.
package miner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind selects which filesystem entries a pattern resolves to.
type Kind int

const (
	// Files resolves to regular files.
	Files Kind = iota
	// Dirs resolves to directories.
	Dirs
)

// ResolvePaths expands glob patterns (with ** support) to absolute paths of
// the given kind, deduplicated in pattern order. A pattern without glob
// characters must name an existing entry of that kind.
func ResolvePaths(patterns []string, kind Kind) ([]string, error) {
	var resolved []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		paths, err := resolvePattern(pattern, kind)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				resolved = append(resolved, p)
			}
		}
	}
	return resolved, nil
}

func resolvePattern(pattern string, kind Kind) ([]string, error) {
	if !containsGlob(pattern) {
		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}
		if !kind.accepts(info) {
			return nil, fmt.Errorf("%s is not a %s", absPath, kind)
		}
		return []string{absPath}, nil
	}

	absPattern, err := makeAbsolutePattern(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var out []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if kind.accepts(info) {
			out = append(out, match)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no %s matches pattern: %s", kind, pattern)
	}
	return out, nil
}

func (k Kind) accepts(info os.FileInfo) bool {
	if k == Dirs {
		return info.IsDir()
	}
	return info.Mode().IsRegular()
}

func (k Kind) String() string {
	if k == Dirs {
		return "directory"
	}
	return "file"
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// makeAbsolutePattern makes the literal prefix of pattern absolute and keeps
// the glob part as written.
func makeAbsolutePattern(pattern string) (string, error) {
	globIdx := strings.IndexAny(pattern, "*?[{")
	if globIdx == -1 {
		return filepath.Abs(pattern)
	}

	dirPart := pattern[:globIdx]
	if lastSep := strings.LastIndexAny(dirPart, "/"+string(filepath.Separator)); lastSep >= 0 {
		dirPart = pattern[:lastSep]
	} else {
		dirPart = "."
	}
	globPart := pattern[len(dirPart):]

	absDir, err := filepath.Abs(dirPart)
	if err != nil {
		return "", err
	}
	return absDir + filepath.FromSlash(globPart), nil
}
