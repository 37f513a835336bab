package triples

import (
	"context"
	"sync"

	"github.com/c360studio/semstreams/message"
)

// MemoryGraph is an in-process Graph indexed by subject.
type MemoryGraph struct {
	mu        sync.RWMutex
	bySubject map[string][]message.Triple
}

// NewMemoryGraph returns an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{bySubject: make(map[string][]message.Triple)}
}

// Match implements Graph.
func (g *MemoryGraph) Match(_ context.Context, p Pattern) ([]message.Triple, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []message.Triple
	if p.Subject != "" {
		for _, t := range g.bySubject[p.Subject] {
			if p.Matches(t) {
				out = append(out, t)
			}
		}
		return out, nil
	}
	for _, list := range g.bySubject {
		for _, t := range list {
			if p.Matches(t) {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// Insert implements Graph.
func (g *MemoryGraph) Insert(_ context.Context, triples ...message.Triple) error {
	if err := validate(triples); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	groups, _ := bySubject(triples)
	for subject, add := range groups {
		g.bySubject[subject], _ = merge(g.bySubject[subject], add)
	}
	return nil
}

// Delete implements Graph.
func (g *MemoryGraph) Delete(_ context.Context, triples ...message.Triple) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	groups, _ := bySubject(triples)
	for subject, del := range groups {
		list, ok := g.bySubject[subject]
		if !ok {
			continue
		}
		list, _ = remove(list, del)
		if len(list) == 0 {
			delete(g.bySubject, subject)
			continue
		}
		g.bySubject[subject] = list
	}
	return nil
}

// Len returns the number of triples in the graph.
func (g *MemoryGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, list := range g.bySubject {
		n += len(list)
	}
	return n
}
