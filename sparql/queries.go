package sparql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/semtags/vocabulary/tags"
)

// LabelVar is the projection variable of the ListTags query.
const LabelVar = "labels"

// TagVar is the projection variable of the TagExists query.
const TagVar = "tag"

// Templates renders the tag queries for a set of ontology namespaces.
type Templates struct {
	ns tags.Namespaces
}

// NewTemplates returns templates for the given namespaces.
func NewTemplates(ns tags.Namespaces) *Templates {
	return &Templates{ns: ns}
}

func (t *Templates) prologue() string {
	prefixes := t.ns.Prefixes()
	keys := make([]string, 0, len(prefixes))
	for k := range prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("PREFIX %s: %s\n", k, IRI(prefixes[k])))
	}
	return sb.String()
}

// ListTags selects the labels of all tags on the file stored at url, in
// ascending order.
func (t *Templates) ListTags(url string) string {
	return t.prologue() + fmt.Sprintf(`SELECT ?%s
WHERE {
  ?f nie:isStoredAs ?as ;
     nao:hasTag ?tags .
  ?as nie:url %s .
  ?tags a nao:Tag ;
        nao:prefLabel ?%s .
} ORDER BY ASC(?%s)
`, LabelVar, Literal(url), LabelVar, LabelVar)
}

// TagExists selects tag resources carrying label.
func (t *Templates) TagExists(label string) string {
	return t.prologue() + fmt.Sprintf(`SELECT ?%s
WHERE {
  ?%s a nao:Tag ;
       nao:prefLabel %s .
} LIMIT 1
`, TagVar, TagVar, Literal(label))
}

// CreateTag inserts a tag resource with label unless one already exists.
func (t *Templates) CreateTag(label string) string {
	lit := Literal(label)
	return t.prologue() + fmt.Sprintf(`INSERT {
  _:tag a nao:Tag ;
        nao:prefLabel %s .
} WHERE {
  OPTIONAL { ?tag a nao:Tag ; nao:prefLabel %s . }
  FILTER (!bound(?tag))
}
`, lit, lit)
}

// Associate links the file stored at url to the tag carrying label.
func (t *Templates) Associate(url, label string) string {
	return t.prologue() + fmt.Sprintf(`INSERT {
  ?unknown nao:hasTag ?id .
} WHERE {
  ?unknown nie:isStoredAs ?as .
  ?as nie:url %s .
  ?id nao:prefLabel %s .
}
`, Literal(url), Literal(label))
}

// Disassociate removes the link between the file stored at url and the tag
// carrying label.
func (t *Templates) Disassociate(url, label string) string {
	return t.prologue() + fmt.Sprintf(`DELETE {
  ?unknown nao:hasTag ?id .
} WHERE {
  ?unknown nie:isStoredAs ?as .
  ?as nie:url %s .
  ?id nao:prefLabel %s .
}
`, Literal(url), Literal(label))
}
