package extension

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
)

// File is a FileInfo for a URI, recording the attributes providers set.
type File struct {
	uri    string
	scheme string
	attrs  map[string]string
}

// NewFile wraps uri.
func NewFile(uri string) (*File, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse uri %q: %w", uri, err)
	}
	return &File{uri: uri, scheme: u.Scheme, attrs: make(map[string]string)}, nil
}

// NewLocalFile wraps a filesystem path.
func NewLocalFile(path string) (*File, error) {
	uri, err := PathToURI(path)
	if err != nil {
		return nil, err
	}
	return NewFile(uri)
}

// URI implements FileInfo.
func (f *File) URI() string { return f.uri }

// URIScheme implements FileInfo.
func (f *File) URIScheme() string { return f.scheme }

// AddStringAttribute implements FileInfo.
func (f *File) AddStringAttribute(name, value string) {
	f.attrs[name] = value
}

// Attribute returns an attribute set by a provider.
func (f *File) Attribute(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

// Attributes returns the names of all set attributes.
func (f *File) Attributes() []string {
	names := make([]string, 0, len(f.attrs))
	for name := range f.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PathToURI converts a filesystem path to a file URI.
func PathToURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	u := url.URL{Scheme: LocalScheme, Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// URIToPath converts a file URI to a filesystem path for display.
func URIToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	if u.Scheme != LocalScheme {
		return "", fmt.Errorf("not a local file uri: %s", uri)
	}
	return filepath.FromSlash(u.Path), nil
}
