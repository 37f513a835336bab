package export

import (
	"context"
	"fmt"
	"sort"

	"github.com/c360studio/semtags/tagstore"
	"github.com/c360studio/semtags/vocabulary/tags"
)

// TagExporter reads file tags from a store and builds RDF entities in the
// desktop ontology layout.
type TagExporter struct {
	store  tagstore.Store
	lister tagstore.FileLister
	ns     tags.Namespaces
}

// TagExporterOption configures a TagExporter.
type TagExporterOption func(*TagExporter)

// WithFileLister sets where Collect finds files when none are named. It
// defaults to the store when the store implements tagstore.FileLister.
func WithFileLister(lister tagstore.FileLister) TagExporterOption {
	return func(x *TagExporter) { x.lister = lister }
}

// NewTagExporter returns an exporter over store.
func NewTagExporter(store tagstore.Store, ns tags.Namespaces, opts ...TagExporterOption) *TagExporter {
	x := &TagExporter{store: store, ns: ns}
	if lister, ok := store.(tagstore.FileLister); ok {
		x.lister = lister
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Collect builds an exporter holding the given files and their tags. With no
// urls, every file the lister knows is exported.
func (x *TagExporter) Collect(ctx context.Context, urls []string) (*RDFExporter, error) {
	if len(urls) == 0 {
		if x.lister == nil {
			return nil, fmt.Errorf("store cannot enumerate files; name them explicitly")
		}
		all, err := x.lister.ListFiles(ctx)
		if err != nil {
			return nil, err
		}
		urls = all
	}

	prefixes := x.ns.Prefixes()
	prefixes["xsd"] = "http://www.w3.org/2001/XMLSchema#"
	out := NewRDFExporter(prefixes)

	labels := make(map[string]struct{})
	for _, url := range urls {
		fileTags, err := x.store.ListTags(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", url, err)
		}

		data := tags.DataObjectIRI(url)
		file := Entity{
			IRI: tags.FileIRI(url),
			Statements: []Statement{
				{Predicate: x.ns.IsStoredAs(), Object: IRIRef(data)},
			},
		}
		for _, label := range fileTags {
			file.Statements = append(file.Statements, Statement{
				Predicate: x.ns.HasTag(),
				Object:    IRIRef(tags.TagIRI(label)),
			})
			labels[label] = struct{}{}
		}
		out.AddEntity(file)
		out.AddEntity(Entity{
			IRI:        data,
			Statements: []Statement{{Predicate: x.ns.URL(), Object: url}},
		})
	}

	sorted := make([]string, 0, len(labels))
	for label := range labels {
		sorted = append(sorted, label)
	}
	sort.Strings(sorted)
	for _, label := range sorted {
		out.AddEntity(Entity{
			IRI:        tags.TagIRI(label),
			Types:      []string{x.ns.Tag()},
			Statements: []Statement{{Predicate: x.ns.PrefLabel(), Object: label}},
		})
	}
	return out, nil
}
