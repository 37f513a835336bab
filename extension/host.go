// Package extension implements the file-manager extension points: a tags
// column and a tag property page.
//
// The host is described by the interfaces in this file. A file manager
// binding (or the semtags CLI) supplies FileInfo values and renders what the
// providers return.
package extension

import (
	"context"

	"github.com/c360studio/semtags/tagpage"
)

// LocalScheme is the only URI scheme the providers look up.
const LocalScheme = "file"

// FileInfo is a file handle supplied by the host.
type FileInfo interface {
	URI() string
	URIScheme() string
	AddStringAttribute(name, value string)
}

// Column describes a listing column.
type Column struct {
	Name        string
	Attribute   string
	Label       string
	Description string
}

// ColumnProvider supplies listing columns.
type ColumnProvider interface {
	Columns() []Column
}

// InfoProvider fills file attributes for listed files.
type InfoProvider interface {
	UpdateFileInfo(ctx context.Context, file FileInfo) error
}

// PropertyPage is one tab of a properties dialog.
type PropertyPage struct {
	Name    string
	Label   string
	Session *tagpage.Session
}

// PropertyPageProvider supplies property pages for a selection.
type PropertyPageProvider interface {
	PropertyPages(ctx context.Context, files []FileInfo) ([]PropertyPage, error)
}
