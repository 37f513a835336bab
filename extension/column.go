package extension

import (
	"context"
	"log/slog"

	"github.com/c360studio/semtags/tagstore"
)

// TagsAttribute is the file attribute holding the joined tag labels.
const TagsAttribute = "tags"

// TagsColumn is the column shown in file listings.
var TagsColumn = Column{
	Name:        "semtags::tags_column",
	Attribute:   TagsAttribute,
	Label:       "Tags",
	Description: "Get all tags",
}

// ColumnExtension shows the tags of each listed file.
type ColumnExtension struct {
	store  tagstore.Store
	logger *slog.Logger
}

// NewColumnExtension returns a column provider reading from store.
func NewColumnExtension(store tagstore.Store, logger *slog.Logger) *ColumnExtension {
	if logger == nil {
		logger = slog.Default()
	}
	return &ColumnExtension{store: store, logger: logger}
}

// Columns implements ColumnProvider.
func (c *ColumnExtension) Columns() []Column {
	return []Column{TagsColumn}
}

// UpdateFileInfo implements InfoProvider. Non-local files are left alone.
// Every call reads from the store.
func (c *ColumnExtension) UpdateFileInfo(ctx context.Context, file FileInfo) error {
	if file.URIScheme() != LocalScheme {
		return nil
	}
	labels, err := c.store.ListTags(ctx, file.URI())
	if err != nil {
		return err
	}
	c.logger.Debug("Listed file tags", "uri", file.URI(), "count", len(labels))
	file.AddStringAttribute(TagsAttribute, tagstore.JoinLabels(labels))
	return nil
}
