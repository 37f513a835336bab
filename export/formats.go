package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdNS   = "http://www.w3.org/2001/XMLSchema#"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	Name      Format
	MIMEType  string
	Extension string
}

var formats = []FormatInfo{
	{Name: FormatTurtle, MIMEType: "text/turtle", Extension: ".ttl"},
	{Name: FormatNTriples, MIMEType: "application/n-triples", Extension: ".nt"},
	{Name: FormatJSONLD, MIMEType: "application/ld+json", Extension: ".jsonld"},
}

// Formats lists the supported formats.
func Formats() []FormatInfo {
	return append([]FormatInfo(nil), formats...)
}

// LookupFormat returns metadata for a format.
func LookupFormat(format Format) (FormatInfo, bool) {
	for _, info := range formats {
		if info.Name == format {
			return info, true
		}
	}
	return FormatInfo{}, false
}

type encoder interface {
	encode(w io.Writer, entities []Entity) error
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// literal renders a typed or plain literal; datatype renders the xsd
// datatype IRI in the target syntax.
func literal(obj any, datatype func(string) string) string {
	var lexical, dt string
	switch v := obj.(type) {
	case string:
		return `"` + literalEscaper.Replace(v) + `"`
	case int, int32, int64, uint, uint32, uint64:
		lexical, dt = fmt.Sprintf("%d", v), "integer"
	case float32, float64:
		lexical, dt = fmt.Sprintf("%g", v), "double"
	case bool:
		lexical, dt = fmt.Sprintf("%t", v), "boolean"
	default:
		return `"` + literalEscaper.Replace(fmt.Sprint(v)) + `"`
	}
	return `"` + lexical + `"^^` + datatype(xsdNS+dt)
}

func angle(iri string) string { return "<" + iri + ">" }

// ntriplesEncoder writes one statement per line with full IRIs.
type ntriplesEncoder struct{}

func (ntriplesEncoder) encode(w io.Writer, entities []Entity) error {
	bw := bufio.NewWriter(w)
	for _, entity := range entities {
		subject := angle(entity.IRI)
		for _, t := range entity.Types {
			fmt.Fprintf(bw, "%s %s %s .\n", subject, angle(rdfType), angle(t))
		}
		for _, st := range entity.Statements {
			fmt.Fprintf(bw, "%s %s %s .\n", subject, angle(st.Predicate), ntriplesObject(st.Object))
		}
	}
	return bw.Flush()
}

func ntriplesObject(obj any) string {
	if ref, ok := obj.(IRIRef); ok {
		return angle(string(ref))
	}
	return literal(obj, angle)
}

// turtleEncoder writes one block per subject, abbreviating IRIs and joining
// repeated predicates into object lists.
type turtleEncoder struct {
	ns namespaces
}

func (e *turtleEncoder) encode(w io.Writer, entities []Entity) error {
	bw := bufio.NewWriter(w)
	for _, name := range e.ns.sortedPrefixes() {
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", name, e.ns.prefixes[name])
	}
	bw.WriteString("\n")

	for _, entity := range entities {
		var lines []string
		if len(entity.Types) > 0 {
			types := make([]string, len(entity.Types))
			for i, t := range entity.Types {
				types[i] = e.term(t)
			}
			lines = append(lines, "a "+strings.Join(types, ", "))
		}
		for _, group := range groupStatements(entity.Statements) {
			objects := make([]string, len(group.objects))
			for i, obj := range group.objects {
				objects[i] = e.object(obj)
			}
			lines = append(lines, e.term(group.predicate)+" "+strings.Join(objects, ", "))
		}
		if len(lines) == 0 {
			continue
		}

		fmt.Fprintf(bw, "%s\n", e.term(entity.IRI))
		for i, line := range lines {
			end := " ;"
			if i == len(lines)-1 {
				end = " ."
			}
			fmt.Fprintf(bw, "    %s%s\n", line, end)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func (e *turtleEncoder) term(iri string) string {
	if name, ok := e.ns.compact(iri); ok {
		return name
	}
	return angle(iri)
}

func (e *turtleEncoder) object(obj any) string {
	if ref, ok := obj.(IRIRef); ok {
		return e.term(string(ref))
	}
	return literal(obj, e.term)
}

type statementGroup struct {
	predicate string
	objects   []any
}

// groupStatements collects objects per predicate in first-seen order.
func groupStatements(statements []Statement) []statementGroup {
	var groups []statementGroup
	index := make(map[string]int)
	for _, st := range statements {
		i, ok := index[st.Predicate]
		if !ok {
			i = len(groups)
			index[st.Predicate] = i
			groups = append(groups, statementGroup{predicate: st.Predicate})
		}
		groups[i].objects = append(groups[i].objects, st.Object)
	}
	return groups
}

// jsonldEncoder writes a compacted document with a prefix @context and
// one @graph node per entity.
type jsonldEncoder struct {
	ns namespaces
}

func (e *jsonldEncoder) encode(w io.Writer, entities []Entity) error {
	context := make(map[string]string, len(e.ns.prefixes))
	for name, iri := range e.ns.prefixes {
		context[name] = iri
	}

	graph := make([]map[string]any, 0, len(entities))
	for _, entity := range entities {
		node := map[string]any{"@id": entity.IRI}
		if len(entity.Types) > 0 {
			types := make([]string, len(entity.Types))
			for i, t := range entity.Types {
				types[i] = e.key(t)
			}
			node["@type"] = types
		}
		for _, group := range groupStatements(entity.Statements) {
			values := make([]any, len(group.objects))
			for i, obj := range group.objects {
				values[i] = jsonldValue(obj)
			}
			if len(values) == 1 {
				node[e.key(group.predicate)] = values[0]
			} else {
				node[e.key(group.predicate)] = values
			}
		}
		graph = append(graph, node)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Context map[string]string `json:"@context"`
		Graph   []map[string]any  `json:"@graph"`
	}{context, graph})
}

func (e *jsonldEncoder) key(iri string) string {
	if name, ok := e.ns.compact(iri); ok {
		return name
	}
	return iri
}

func jsonldValue(obj any) any {
	switch v := obj.(type) {
	case IRIRef:
		return map[string]string{"@id": string(v)}
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return v
	default:
		return fmt.Sprint(v)
	}
}
