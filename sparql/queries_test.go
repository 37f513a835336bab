package sparql

import (
	"strings"
	"testing"

	"github.com/c360studio/semtags/vocabulary/tags"
	"github.com/stretchr/testify/assert"
)

func TestTemplates_Prologue(t *testing.T) {
	tpl := NewTemplates(tags.DefaultNamespaces())
	q := tpl.ListTags("file:///tmp/a.txt")

	assert.True(t, strings.HasPrefix(q, "PREFIX nao: <"+tags.NAONamespace+">\n"))
	assert.Contains(t, q, "PREFIX nie: <"+tags.NIENamespace+">")
	assert.Contains(t, q, "PREFIX rdf: <"+tags.RDFNamespace+">")
}

func TestTemplates_ListTags(t *testing.T) {
	tpl := NewTemplates(tags.DefaultNamespaces())
	q := tpl.ListTags("file:///home/user/it's.txt")

	assert.Contains(t, q, `?as nie:url "file:///home/user/it\'s.txt" .`)
	assert.Contains(t, q, "ORDER BY ASC(?labels)")
	assert.Contains(t, q, "SELECT ?labels")
}

func TestTemplates_TagExists(t *testing.T) {
	tpl := NewTemplates(tags.DefaultNamespaces())
	q := tpl.TagExists("work")

	assert.Contains(t, q, `nao:prefLabel "work" .`)
	assert.Contains(t, q, "?tag a nao:Tag")
}

func TestTemplates_CreateTagGuard(t *testing.T) {
	tpl := NewTemplates(tags.DefaultNamespaces())
	q := tpl.CreateTag("work")

	assert.Contains(t, q, "INSERT {")
	assert.Contains(t, q, "FILTER (!bound(?tag))")
	assert.Equal(t, 2, strings.Count(q, `"work"`), "label appears in insert and guard")
}

func TestTemplates_Mutations(t *testing.T) {
	tpl := NewTemplates(tags.DefaultNamespaces())

	add := tpl.Associate("file:///a", `we"ird`)
	assert.True(t, strings.Contains(add, "INSERT {"))
	assert.Contains(t, add, `?id nao:prefLabel "we\"ird" .`)
	assert.Contains(t, add, `?as nie:url "file:///a" .`)

	del := tpl.Disassociate("file:///a", "x")
	assert.Contains(t, del, "DELETE {")
	assert.Contains(t, del, "?unknown nao:hasTag ?id .")
}
