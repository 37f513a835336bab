// Package export serializes file tags as RDF.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// IRIRef is an object that refers to another resource rather than a literal.
type IRIRef string

// Statement is one predicate-object pair of an entity, with the predicate
// already resolved to an IRI.
type Statement struct {
	Predicate string
	Object    any
}

// Entity is an exportable resource.
type Entity struct {
	IRI        string
	Types      []string
	Statements []Statement
}

// RDFExporter accumulates entities and serializes them.
type RDFExporter struct {
	prefixes map[string]string
	entities []Entity
}

// NewRDFExporter creates an exporter declaring prefixes. Turtle and JSON-LD
// output abbreviate IRIs under these prefixes.
func NewRDFExporter(prefixes map[string]string) *RDFExporter {
	p := make(map[string]string, len(prefixes))
	for k, v := range prefixes {
		p[k] = v
	}
	return &RDFExporter{prefixes: p}
}

// AddEntity adds an entity to be exported.
func (e *RDFExporter) AddEntity(entity Entity) {
	e.entities = append(e.entities, entity)
}

// Entities returns the accumulated entities sorted by IRI.
func (e *RDFExporter) Entities() []Entity {
	out := make([]Entity, len(e.entities))
	copy(out, e.entities)
	sort.SliceStable(out, func(i, j int) bool { return out[i].IRI < out[j].IRI })
	return out
}

// Write serializes all entities to w.
func (e *RDFExporter) Write(w io.Writer, format Format) error {
	var enc encoder
	switch format {
	case FormatTurtle:
		enc = &turtleEncoder{ns: newNamespaces(e.prefixes)}
	case FormatNTriples:
		enc = ntriplesEncoder{}
	case FormatJSONLD:
		enc = &jsonldEncoder{ns: newNamespaces(e.prefixes)}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return enc.encode(w, e.Entities())
}

// Export serializes all entities to a string.
func (e *RDFExporter) Export(format Format) (string, error) {
	var sb strings.Builder
	if err := e.Write(&sb, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// namespaces abbreviates IRIs to prefixed names.
type namespaces struct {
	prefixes map[string]string
	// names is sorted so that the longest matching namespace wins
	names []string
}

func newNamespaces(prefixes map[string]string) namespaces {
	ns := namespaces{prefixes: prefixes}
	for name := range prefixes {
		ns.names = append(ns.names, name)
	}
	sort.Slice(ns.names, func(i, j int) bool {
		a, b := prefixes[ns.names[i]], prefixes[ns.names[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return ns.names[i] < ns.names[j]
	})
	return ns
}

// compact returns prefix:local for an IRI under a known namespace whose
// local part is a plain name.
func (ns namespaces) compact(iri string) (string, bool) {
	for _, name := range ns.names {
		base := ns.prefixes[name]
		if base == "" || !strings.HasPrefix(iri, base) {
			continue
		}
		local := iri[len(base):]
		if isLocalName(local) {
			return name + ":" + local, true
		}
	}
	return "", false
}

// sortedPrefixes returns the prefix names in alphabetical order.
func (ns namespaces) sortedPrefixes() []string {
	out := append([]string(nil), ns.names...)
	sort.Strings(out)
	return out
}

func isLocalName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
