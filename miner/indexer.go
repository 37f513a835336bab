package miner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/c360studio/semtags/extension"
	"github.com/c360studio/semtags/tagstore"
)

// Indexer registers the files under a root with a tag store.
type Indexer struct {
	target tagstore.Indexer
	filter Filter
	logger *slog.Logger
}

// NewIndexer returns an indexer writing to target.
func NewIndexer(target tagstore.Indexer, filter Filter, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{target: target, filter: filter, logger: logger}
}

// IndexRoot walks root and indexes every matching regular file. It returns
// the number of files indexed.
func (ix *Indexer) IndexRoot(ctx context.Context, root string) (int, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return 0, fmt.Errorf("resolve root: %w", err)
	}
	count, err := ix.indexTree(ctx, root, root)
	if err != nil {
		return count, err
	}
	ix.logger.Info("Indexed directory", "root", root, "files", count)
	return count, nil
}

// indexTree indexes the files below dir, matching paths relative to root.
func (ix *Indexer) indexTree(ctx context.Context, root, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			if ix.filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !ix.filter.Match(rel) {
			return nil
		}

		if err := ix.IndexPath(ctx, path); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("index %s: %w", dir, err)
	}
	return count, nil
}

// IndexPath registers one file.
func (ix *Indexer) IndexPath(ctx context.Context, path string) error {
	uri, err := extension.PathToURI(path)
	if err != nil {
		return err
	}
	if err := ix.target.IndexFile(ctx, uri); err != nil {
		return err
	}
	ix.logger.Debug("Indexed file", "uri", uri)
	return nil
}

// ForgetPath removes one file.
func (ix *Indexer) ForgetPath(ctx context.Context, path string) error {
	uri, err := extension.PathToURI(path)
	if err != nil {
		return err
	}
	if err := ix.target.ForgetFile(ctx, uri); err != nil {
		return err
	}
	ix.logger.Debug("Forgot file", "uri", uri)
	return nil
}
