// Package sparql renders the tag query templates and talks to a SPARQL 1.1
// endpoint over HTTP.
//
// Values never reach query text directly: labels and URLs are rendered through
// Literal, which escapes every character that could terminate or alter a
// string literal.
package sparql

import "strings"

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// Literal renders s as a double-quoted SPARQL string literal.
func Literal(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

// IRI renders an IRI reference. Characters that are not allowed inside an
// IRIREF are percent-encoded.
func IRI(iri string) string {
	var sb strings.Builder
	sb.WriteByte('<')
	for _, r := range iri {
		switch {
		case r <= 0x20, strings.ContainsRune("<>\"{}|^`\\", r):
			sb.WriteString(percentEncode(r))
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('>')
	return sb.String()
}

func percentEncode(r rune) string {
	const hex = "0123456789ABCDEF"
	b := byte(r)
	return string([]byte{'%', hex[b>>4], hex[b&0x0f]})
}
