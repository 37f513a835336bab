// Package tags provides vocabulary predicates for file tagging.
//
// The predicates mirror the desktop search ontologies used by file indexers:
// a file resource is stored as a data object carrying a URL, and carries zero
// or more tag resources, each with exactly one preferred label.
//
//	<file> tags.file.stored_as  <data-object>
//	<data-object> tags.data.url "file:///home/user/notes.txt"
//	<file> tags.file.has_tag    <tag>
//	<tag>  tags.resource.type   nao:Tag
//	<tag>  tags.tag.pref_label  "work"
//
// Each predicate is registered with the semstreams vocabulary registry and
// carries the standard IRI used when queries are rendered as SPARQL or the
// graph is exported as RDF.
package tags
