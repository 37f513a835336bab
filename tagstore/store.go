// Package tagstore implements tag queries and mutations over a triple store.
//
// Every implementation of Store is synchronous: a call blocks until the
// backing store answers. Implementations do not retry.
package tagstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	semerrors "github.com/c360studio/semstreams/pkg/errs"
)

var (
	// ErrNoConnection is returned by every operation of a store created
	// without a connection.
	ErrNoConnection = fmt.Errorf("tag store: %w", semerrors.ErrNoConnection)

	// ErrInvalidLabel is returned for labels that cannot be stored.
	ErrInvalidLabel = errors.New("invalid tag label")

	// ErrNotIndexed is returned when tagging a url that has no file resource.
	ErrNotIndexed = errors.New("file not indexed")
)

// LabelSeparator separates labels in the joined column and entry text.
const LabelSeparator = ","

// Store reads and writes the tags of files addressed by URL.
type Store interface {
	// ListTags returns the labels of the tags on the file stored at url, in
	// ascending lexicographic order.
	ListTags(ctx context.Context, url string) ([]string, error)

	// TagExists reports whether a tag resource carries label.
	TagExists(ctx context.Context, label string) (bool, error)

	// CreateTag creates a tag resource for label unless one exists.
	CreateTag(ctx context.Context, label string) (bool, error)

	// Associate creates the tag if needed and links it to the file at url.
	Associate(ctx context.Context, url, label string) (bool, error)

	// Disassociate unlinks the tag from the file at url. A missing link is
	// not an error.
	Disassociate(ctx context.Context, url, label string) error
}

// Indexer registers file resources with stores that do not get them from an
// external indexer.
type Indexer interface {
	IndexFile(ctx context.Context, url string) error
	ForgetFile(ctx context.Context, url string) error
}

// FileLister enumerates the URLs of all indexed files.
type FileLister interface {
	ListFiles(ctx context.Context) ([]string, error)
}

// ChangeNotifier is told the full tag list of a file after it changed.
type ChangeNotifier interface {
	TagsChanged(ctx context.Context, url string, tags []string) error
}

// ValidateLabel rejects labels that cannot round-trip through the
// comma-separated entry text.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidLabel)
	}
	if strings.Contains(label, LabelSeparator) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidLabel, label, LabelSeparator)
	}
	return nil
}

// JoinLabels renders labels for the column and the entry field.
func JoinLabels(labels []string) string {
	return strings.Join(labels, LabelSeparator)
}

// SplitLabels parses entry text into labels. Surrounding whitespace is
// trimmed, empty items are dropped, and duplicates keep their first position.
func SplitLabels(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(text, LabelSeparator) {
		label := strings.TrimSpace(part)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
