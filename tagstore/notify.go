package tagstore

import (
	"context"
	"log/slog"
)

// NotifyingStore reports the new tag list of a file after each successful
// association change.
type NotifyingStore struct {
	Store
	notifier ChangeNotifier
	logger   *slog.Logger
}

// Notify wraps store so that notifier hears about tag changes. Notification
// failures are logged and do not fail the mutation.
func Notify(store Store, notifier ChangeNotifier, logger *slog.Logger) *NotifyingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotifyingStore{Store: store, notifier: notifier, logger: logger}
}

// Associate implements Store.
func (s *NotifyingStore) Associate(ctx context.Context, url, label string) (bool, error) {
	ok, err := s.Store.Associate(ctx, url, label)
	if err != nil {
		return ok, err
	}
	s.changed(ctx, url)
	return ok, nil
}

// Disassociate implements Store.
func (s *NotifyingStore) Disassociate(ctx context.Context, url, label string) error {
	if err := s.Store.Disassociate(ctx, url, label); err != nil {
		return err
	}
	s.changed(ctx, url)
	return nil
}

func (s *NotifyingStore) changed(ctx context.Context, url string) {
	labels, err := s.Store.ListTags(ctx, url)
	if err != nil {
		s.logger.Warn("Failed to read tags for change notification", "url", url, "error", err)
		return
	}
	if err := s.notifier.TagsChanged(ctx, url, labels); err != nil {
		s.logger.Warn("Tag change notification failed", "url", url, "error", err)
	}
}
