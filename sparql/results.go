package sparql

import (
	"encoding/json"
	"fmt"
)

// Results is a decoded application/sparql-results+json document.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

// Binding is one bound value in a solution.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// ParseResults decodes a SPARQL JSON results document.
func ParseResults(data []byte) (*Results, error) {
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode sparql results: %w", err)
	}
	return &r, nil
}

// Len returns the number of solutions.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Results.Bindings)
}

// Strings returns the values bound to variable in solution order. Solutions
// that leave the variable unbound are skipped.
func (r *Results) Strings(variable string) []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Results.Bindings))
	for _, solution := range r.Results.Bindings {
		if b, ok := solution[variable]; ok {
			out = append(out, b.Value)
		}
	}
	return out
}
