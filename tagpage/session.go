package tagpage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/c360studio/semtags/tagstore"
)

var (
	// ErrSessionClosed is returned by every call after Close.
	ErrSessionClosed = errors.New("tag page session closed")

	// ErrNotApplied is returned when the store reports that a tag was not
	// linked to a file.
	ErrNotApplied = errors.New("tag not applied")
)

// Session is the state of one open property page. Its methods are meant to
// be called from a single goroutine, the way a UI loop delivers events.
type Session struct {
	store  tagstore.Store
	files  []string
	rows   *ListStore
	entry  *tagEntry
	logger *slog.Logger
	closed bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session for the local files at urls. Call Build
// before anything else.
func NewSession(store tagstore.Store, urls []string, opts ...Option) *Session {
	s := &Session{
		store:  store,
		files:  append([]string(nil), urls...),
		rows:   NewListStore(),
		entry:  &tagEntry{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rows.OnRowChanged(s.updateSummary)
	return s
}

// Files returns the URLs of the selected local files.
func (s *Session) Files() []string {
	return append([]string(nil), s.files...)
}

// Rows returns a snapshot of the tag rows.
func (s *Session) Rows() []Row {
	return s.rows.Rows()
}

// EntryText returns the text of the tag entry.
func (s *Session) EntryText() string {
	return s.entry.Text()
}

// OnEntryChanged registers fn for entry edits made through SetEntryText.
// Rewrites of the entry from the rows are not reported.
func (s *Session) OnEntryChanged(fn func(text string)) {
	s.entry.onChanged(fn)
}

// Build reads the tags of every file and fills the rows, replacing any rows
// from an earlier Build. A tag is checked when every file carries it; a tag
// carried by only some files is marked inconsistent.
func (s *Session) Build(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}

	counts, err := s.usage(ctx)
	if err != nil {
		return err
	}

	s.rows.RemoveAll()
	s.entry.rewrite("")

	for _, label := range sortedKeys(counts) {
		count := counts[label]
		row := Row{Label: label, Count: count}
		if count != len(s.files) {
			s.logger.Warn("Inconsistent tag usage across selection",
				"tag", label, "count", count, "files", len(s.files))
			row.Inconsistent = true
		}
		i := s.rows.Append(row)
		if count == len(s.files) {
			row.Included = true
			if err := s.rows.Set(i, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddRow appends a blank unchecked row and returns its index. Nothing is
// written to the store until the row gets a label and is checked.
func (s *Session) AddRow() (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	return s.rows.Append(Row{}), nil
}

// Toggle flips the row at i and applies the change to every file.
func (s *Session) Toggle(ctx context.Context, i int) error {
	if s.closed {
		return ErrSessionClosed
	}
	row, err := s.rows.Row(i)
	if err != nil {
		return err
	}

	include := !row.Included
	if include {
		if err := tagstore.ValidateLabel(row.Label); err != nil {
			return err
		}
	}

	for _, url := range s.files {
		if include {
			err = s.associate(ctx, url, row.Label)
		} else {
			err = s.store.Disassociate(ctx, url, row.Label)
		}
		if err != nil {
			s.settle(ctx, i, row)
			return err
		}
	}

	row.Included = include
	row.Inconsistent = false
	if include {
		row.Count = len(s.files)
	} else {
		row.Count = 0
	}
	return s.rows.Set(i, row)
}

// EditLabel renames the row at i. A checked row moves every file from the
// old label to the new one; an unchecked row only changes its text.
func (s *Session) EditLabel(ctx context.Context, i int, text string) error {
	if s.closed {
		return ErrSessionClosed
	}
	row, err := s.rows.Row(i)
	if err != nil {
		return err
	}

	if row.Included {
		if err := tagstore.ValidateLabel(text); err != nil {
			return err
		}
		for _, url := range s.files {
			if err := s.store.Disassociate(ctx, url, row.Label); err != nil {
				s.settle(ctx, i, row)
				return err
			}
			if err := s.associate(ctx, url, text); err != nil {
				s.settle(ctx, i, row)
				return err
			}
		}
	}

	row.Label = text
	return s.rows.Set(i, row)
}

// SetEntryText replaces the entry text as the user would by typing.
func (s *Session) SetEntryText(text string) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.entry.SetText(text)
	return nil
}

// CommitEntry makes the tags of every file equal to the labels in the entry,
// then rebuilds the rows from the store. The first store error aborts the
// commit; files already processed keep their new tags and the rows are
// rebuilt from what the store holds.
func (s *Session) CommitEntry(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}

	if err := s.apply(ctx, tagstore.SplitLabels(s.entry.Text())); err != nil {
		if rerr := s.refresh(ctx); rerr != nil {
			s.logger.Warn("Failed to re-read tags after error", "error", rerr)
		}
		return err
	}
	return s.refresh(ctx)
}

// apply moves every file to exactly the wanted labels.
func (s *Session) apply(ctx context.Context, wanted []string) error {
	wantedSet := toSet(wanted)
	for _, url := range s.files {
		current, err := s.store.ListTags(ctx, url)
		if err != nil {
			return err
		}
		currentSet := toSet(current)

		for _, label := range current {
			if _, keep := wantedSet[label]; keep {
				continue
			}
			if err := s.store.Disassociate(ctx, url, label); err != nil {
				return err
			}
		}
		for _, label := range wanted {
			if _, has := currentSet[label]; has {
				continue
			}
			if err := s.associate(ctx, url, label); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close discards the session state.
func (s *Session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.rows.Clear()
	s.entry = &tagEntry{}
	s.files = nil
	return nil
}

// refresh reconciles the rows with the store after a commit: rows for tags
// no file carries are dropped, surviving rows are checked iff every file
// carries the tag, and newly seen tags are appended.
func (s *Session) refresh(ctx context.Context) error {
	restore := s.rows.Suppress()
	defer restore()

	counts, err := s.usage(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < s.rows.Len(); {
		row := s.rows.rows[i]
		count, ok := counts[row.Label]
		if !ok {
			if err := s.rows.Remove(i); err != nil {
				return err
			}
			continue
		}
		s.recount(&row, count)
		if err := s.rows.Set(i, row); err != nil {
			return err
		}
		delete(counts, row.Label)
		i++
	}

	for _, label := range sortedKeys(counts) {
		row := Row{Label: label}
		s.recount(&row, counts[label])
		s.rows.Append(row)
	}
	return nil
}

// settle re-reads the usage of the row's label after a failed mutation, so
// the row stays checked only while every file still carries the tag.
func (s *Session) settle(ctx context.Context, i int, row Row) {
	counts, err := s.usage(ctx)
	if err != nil {
		s.logger.Warn("Failed to re-read tags after error", "tag", row.Label, "error", err)
		return
	}
	s.recount(&row, counts[row.Label])
	if err := s.rows.Set(i, row); err != nil {
		s.logger.Warn("Failed to update row", "index", i, "error", err)
	}
}

func (s *Session) recount(row *Row, count int) {
	row.Count = count
	row.Included = count > 0 && count == len(s.files)
	row.Inconsistent = count > 0 && !row.Included
}

// associate links label to url and treats a false result as a failure.
func (s *Session) associate(ctx context.Context, url, label string) error {
	ok, err := s.store.Associate(ctx, url, label)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrNotApplied, label, url)
	}
	return nil
}

// updateSummary rewrites the entry from the checked rows.
func (s *Session) updateSummary(int, Row) {
	s.entry.rewrite(tagstore.JoinLabels(s.rows.Checked()))
}

// usage returns, for every tag on any file, the number of files carrying it.
func (s *Session) usage(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, url := range s.files {
		labels, err := s.store.ListTags(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("read tags of %s: %w", url, err)
		}
		for label := range toSet(labels) {
			counts[label]++
		}
	}
	return counts, nil
}

func toSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
