package tags

// Default ontology namespaces (Tracker 3).
const (
	// NIENamespace is the Nepomuk Information Element namespace.
	NIENamespace = "http://tracker.api.gnome.org/ontology/v3/nie#"

	// NAONamespace is the Nepomuk Annotation Ontology namespace.
	NAONamespace = "http://tracker.api.gnome.org/ontology/v3/nao#"

	// RDFNamespace is the RDF syntax namespace.
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// EntityNamespace is used to mint IRIs for resources created by semtags.
	EntityNamespace = "urn:semtags:"
)

// Namespaces holds the namespace IRIs used to render predicate IRIs.
// The zero value is not usable; start from DefaultNamespaces.
type Namespaces struct {
	NIE string `yaml:"nie"`
	NAO string `yaml:"nao"`
}

// DefaultNamespaces returns the Tracker 3 namespaces.
func DefaultNamespaces() Namespaces {
	return Namespaces{NIE: NIENamespace, NAO: NAONamespace}
}

// IsStoredAs returns the nie:isStoredAs IRI.
func (n Namespaces) IsStoredAs() string { return n.NIE + "isStoredAs" }

// URL returns the nie:url IRI.
func (n Namespaces) URL() string { return n.NIE + "url" }

// HasTag returns the nao:hasTag IRI.
func (n Namespaces) HasTag() string { return n.NAO + "hasTag" }

// PrefLabel returns the nao:prefLabel IRI.
func (n Namespaces) PrefLabel() string { return n.NAO + "prefLabel" }

// Tag returns the nao:Tag class IRI.
func (n Namespaces) Tag() string { return n.NAO + "Tag" }

// Prefixes returns the prefix table for query and export rendering.
func (n Namespaces) Prefixes() map[string]string {
	return map[string]string{
		"nie": n.NIE,
		"nao": n.NAO,
		"rdf": RDFNamespace,
	}
}

// PredicateIRI returns the IRI of a tags predicate under these namespaces.
// Predicates outside this package resolve through the vocabulary registry.
func (n Namespaces) PredicateIRI(predicate string) string {
	switch predicate {
	case FileStoredAs:
		return n.IsStoredAs()
	case DataURL:
		return n.URL()
	case FileHasTag:
		return n.HasTag()
	case TagPrefLabel:
		return n.PrefLabel()
	default:
		return IRI(predicate)
	}
}
