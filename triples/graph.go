// Package triples provides small subject-predicate-object graphs used as
// embedded tag stores.
//
// Graphs hold semstreams message.Triple values and treat (subject, predicate,
// object) as the identity of a statement: inserting an existing statement is
// a no-op, so provenance fields of the first insert win.
package triples

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/c360studio/semstreams/message"
)

// ErrInvalidTriple is returned when a triple has an empty subject or predicate.
var ErrInvalidTriple = errors.New("triple requires subject and predicate")

// Source is recorded on triples written by semtags.
const Source = "semtags"

// Graph is a set of triples.
type Graph interface {
	// Match returns all triples matching the pattern.
	Match(ctx context.Context, p Pattern) ([]message.Triple, error)

	// Insert adds triples that are not yet present.
	Insert(ctx context.Context, triples ...message.Triple) error

	// Delete removes triples. Missing triples are ignored.
	Delete(ctx context.Context, triples ...message.Triple) error
}

// Pattern selects triples. Empty fields match anything; a nil Object matches
// any object.
type Pattern struct {
	Subject   string
	Predicate string
	Object    any
}

// Matches reports whether t satisfies the pattern.
func (p Pattern) Matches(t message.Triple) bool {
	if p.Subject != "" && p.Subject != t.Subject {
		return false
	}
	if p.Predicate != "" && p.Predicate != t.Predicate {
		return false
	}
	if p.Object != nil && !sameObject(p.Object, t.Object) {
		return false
	}
	return true
}

// New builds a triple stamped with the semtags source.
func New(subject, predicate string, object any) message.Triple {
	return message.Triple{
		Subject:    subject,
		Predicate:  predicate,
		Object:     object,
		Source:     Source,
		Timestamp:  time.Now().UTC(),
		Confidence: 1.0,
	}
}

// Objects returns the string objects of triples in ascending order.
func Objects(triples []message.Triple) []string {
	out := make([]string, 0, len(triples))
	for _, t := range triples {
		if s, ok := t.Object.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Subjects returns the distinct subjects of triples.
func Subjects(triples []message.Triple) []string {
	seen := make(map[string]struct{}, len(triples))
	out := make([]string, 0, len(triples))
	for _, t := range triples {
		if _, ok := seen[t.Subject]; ok {
			continue
		}
		seen[t.Subject] = struct{}{}
		out = append(out, t.Subject)
	}
	return out
}

func validate(triples []message.Triple) error {
	for _, t := range triples {
		if t.Subject == "" || t.Predicate == "" {
			return fmt.Errorf("%w: %q %q", ErrInvalidTriple, t.Subject, t.Predicate)
		}
	}
	return nil
}

// sameObject compares objects by value. Objects decoded from JSON lose their
// Go type, so both sides are compared through their formatted form.
func sameObject(a, b any) bool {
	if a == b {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func sameStatement(a, b message.Triple) bool {
	return a.Subject == b.Subject && a.Predicate == b.Predicate && sameObject(a.Object, b.Object)
}

// merge adds the triples of add to list unless already present and reports
// whether list changed.
func merge(list []message.Triple, add []message.Triple) ([]message.Triple, bool) {
	changed := false
	for _, t := range add {
		found := false
		for _, existing := range list {
			if sameStatement(existing, t) {
				found = true
				break
			}
		}
		if !found {
			list = append(list, t)
			changed = true
		}
	}
	return list, changed
}

// remove drops the triples of del from list and reports whether list changed.
func remove(list []message.Triple, del []message.Triple) ([]message.Triple, bool) {
	changed := false
	kept := list[:0]
	for _, existing := range list {
		drop := false
		for _, t := range del {
			if sameStatement(existing, t) {
				drop = true
				break
			}
		}
		if drop {
			changed = true
			continue
		}
		kept = append(kept, existing)
	}
	return kept, changed
}

// bySubject groups triples by subject, keeping first-seen order.
func bySubject(triples []message.Triple) (map[string][]message.Triple, []string) {
	groups := make(map[string][]message.Triple)
	var order []string
	for _, t := range triples {
		if _, ok := groups[t.Subject]; !ok {
			order = append(order, t.Subject)
		}
		groups[t.Subject] = append(groups[t.Subject], t)
	}
	return groups, order
}
