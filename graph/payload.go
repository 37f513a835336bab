package graph

import (
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "semtags",
		Category:    "entity",
		Version:     "v1",
		Description: "File or tag entity with its tag triples",
		Factory:     func() any { return &EntityPayload{} },
	})
	if err != nil {
		panic("failed to register EntityPayload: " + err.Error())
	}
}

// EntityType is the message type for tag entity payloads.
var EntityType = message.Type{Domain: "semtags", Category: "entity", Version: "v1"}

// EntityPayload carries the triples of one entity for graph ingestion.
type EntityPayload struct {
	ID         string           `json:"id"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (e *EntityPayload) EntityID() string          { return e.ID }
func (e *EntityPayload) Triples() []message.Triple { return e.TripleData }
func (e *EntityPayload) Schema() message.Type      { return EntityType }

// Validate requires an ID and that every triple describes that ID.
func (e *EntityPayload) Validate() error {
	if e.ID == "" {
		return errors.New("entity ID is required")
	}
	for _, t := range e.TripleData {
		if t.Subject != e.ID {
			return errors.New("triple subject does not match entity ID")
		}
	}
	return nil
}
