package tags

import "github.com/c360studio/semstreams/vocabulary"

// File and data object predicates.
const (
	// FileStoredAs links a file resource to the data object that holds its URL.
	FileStoredAs = "tags.file.stored_as"

	// DataURL is the URL of a data object, e.g. "file:///home/user/a.txt".
	// Stores are keyed by this exact string.
	DataURL = "tags.data.url"

	// FileHasTag links a file resource to a tag resource.
	FileHasTag = "tags.file.has_tag"
)

// Tag predicates.
const (
	// TagPrefLabel is the single preferred label of a tag resource.
	TagPrefLabel = "tags.tag.pref_label"

	// ResourceType asserts the class of a resource.
	// Tag resources carry ClassTag.
	ResourceType = "tags.resource.type"
)

// ClassTag is the object of ResourceType for tag resources.
const ClassTag = NAONamespace + "Tag"

func init() {
	ns := DefaultNamespaces()

	vocabulary.Register(FileStoredAs,
		vocabulary.WithDescription("Data object a file resource is stored as"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(ns.IsStoredAs()))

	vocabulary.Register(DataURL,
		vocabulary.WithDescription("URL of the stored data object"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(ns.URL()))

	vocabulary.Register(FileHasTag,
		vocabulary.WithDescription("Tag associated with a file resource"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(ns.HasTag()))

	vocabulary.Register(TagPrefLabel,
		vocabulary.WithDescription("Preferred label of a tag"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(ns.PrefLabel()),
		vocabulary.WithAlias(vocabulary.AliasTypeLabel, 0))

	vocabulary.Register(ResourceType,
		vocabulary.WithDescription("Class of the resource"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(RDFNamespace+"type"))
}

// IRI returns the standard IRI registered for a predicate, or the predicate
// itself when it is unknown to the registry.
func IRI(predicate string) string {
	if meta := vocabulary.GetPredicateMetadata(predicate); meta != nil && meta.StandardIRI != "" {
		return meta.StandardIRI
	}
	return predicate
}
