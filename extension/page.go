package extension

import (
	"context"
	"log/slog"

	"github.com/c360studio/semtags/tagpage"
	"github.com/c360studio/semtags/tagstore"
)

// TagPageName is the internal name of the tag property page.
const TagPageName = "semtags::tag"

// TagPropertyPage builds the tag tab of the properties dialog.
type TagPropertyPage struct {
	store  tagstore.Store
	logger *slog.Logger
}

// NewTagPropertyPage returns a property page provider over store.
func NewTagPropertyPage(store tagstore.Store, logger *slog.Logger) *TagPropertyPage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagPropertyPage{store: store, logger: logger}
}

// PropertyPages implements PropertyPageProvider. Only local files take part
// in the session; a selection without local files yields an empty page.
func (p *TagPropertyPage) PropertyPages(ctx context.Context, files []FileInfo) ([]PropertyPage, error) {
	var urls []string
	for _, f := range files {
		if f.URIScheme() != LocalScheme {
			p.logger.Debug("Skipping non-local file", "uri", f.URI())
			continue
		}
		urls = append(urls, f.URI())
	}

	session := tagpage.NewSession(p.store, urls, tagpage.WithLogger(p.logger))
	if err := session.Build(ctx); err != nil {
		return nil, err
	}
	return []PropertyPage{{
		Name:    TagPageName,
		Label:   "Tag",
		Session: session,
	}}, nil
}
