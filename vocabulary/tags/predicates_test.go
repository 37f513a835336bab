package tags

import (
	"testing"

	"github.com/c360studio/semstreams/vocabulary"
)

func TestPredicatesRegistered(t *testing.T) {
	predicates := []string{
		FileStoredAs,
		DataURL,
		FileHasTag,
		TagPrefLabel,
		ResourceType,
	}

	for _, pred := range predicates {
		t.Run(pred, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(pred)
			if meta == nil || meta.Description == "" {
				t.Fatalf("predicate %s not registered or missing description", pred)
			}
			if meta.StandardIRI == "" {
				t.Errorf("predicate %s has no standard IRI", pred)
			}
		})
	}
}

func TestIRI(t *testing.T) {
	tests := []struct {
		predicate string
		want      string
	}{
		{FileHasTag, NAONamespace + "hasTag"},
		{TagPrefLabel, NAONamespace + "prefLabel"},
		{DataURL, NIENamespace + "url"},
		{"unknown.pred.icate", "unknown.pred.icate"},
	}

	for _, tt := range tests {
		if got := IRI(tt.predicate); got != tt.want {
			t.Errorf("IRI(%q) = %q, want %q", tt.predicate, got, tt.want)
		}
	}
}

func TestNamespacesOverride(t *testing.T) {
	ns := Namespaces{
		NIE: "http://www.semanticdesktop.org/ontologies/2007/01/19/nie#",
		NAO: "http://www.semanticdesktop.org/ontologies/2007/08/15/nao#",
	}

	if got := ns.HasTag(); got != "http://www.semanticdesktop.org/ontologies/2007/08/15/nao#hasTag" {
		t.Errorf("HasTag() = %s", got)
	}
	if ns.Prefixes()["nie"] != ns.NIE {
		t.Error("prefix table should carry the nie override")
	}
}
