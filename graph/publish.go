// Package graph publishes tag changes to the knowledge graph.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/google/uuid"

	"github.com/c360studio/semtags/vocabulary/tags"
)

// GraphIngestSubject is the subject entity payloads are published on.
const GraphIngestSubject = "graph.ingest.entity"

const publishSource = "semtags.tags"

// StreamPublisher publishes to a JetStream subject. *natsclient.Client
// implements it.
type StreamPublisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// Publisher mirrors file tag changes into the graph. It implements
// tagstore.ChangeNotifier.
type Publisher struct {
	nc StreamPublisher
}

// NewPublisher returns a publisher over nc. A nil nc disables publishing.
func NewPublisher(nc StreamPublisher) *Publisher {
	return &Publisher{nc: nc}
}

// TagsChanged publishes the file entity with its current tags, followed by
// one entity per tag.
func (p *Publisher) TagsChanged(ctx context.Context, url string, labels []string) error {
	if p == nil || p.nc == nil {
		return nil
	}

	now := time.Now()
	fileID := FileEntityID(url)

	fileTriples := []message.Triple{
		newTriple(fileID, tags.DataURL, url, now),
	}
	for _, label := range labels {
		fileTriples = append(fileTriples, newTriple(fileID, tags.FileHasTag, TagEntityID(label), now))
	}
	if err := p.publish(ctx, fileID, fileTriples, now); err != nil {
		return fmt.Errorf("publish file entity: %w", err)
	}

	for _, label := range labels {
		tagID := TagEntityID(label)
		err := p.publish(ctx, tagID, []message.Triple{
			newTriple(tagID, tags.ResourceType, tags.ClassTag, now),
			newTriple(tagID, tags.TagPrefLabel, label, now),
		}, now)
		if err != nil {
			return fmt.Errorf("publish tag entity: %w", err)
		}
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, id string, triples []message.Triple, now time.Time) error {
	payload := &EntityPayload{
		ID:         id,
		TripleData: triples,
		UpdatedAt:  now,
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", id, err)
	}
	return p.nc.PublishToStream(ctx, GraphIngestSubject, data)
}

func newTriple(subject, predicate string, object any, now time.Time) message.Triple {
	return message.Triple{
		Subject:    subject,
		Predicate:  predicate,
		Object:     object,
		Source:     publishSource,
		Timestamp:  now,
		Confidence: 1.0,
	}
}

// FileEntityID generates a consistent entity ID for a file.
// Format: semtags.local.desktop.file.file.<uuid>
func FileEntityID(url string) string {
	return fmt.Sprintf("semtags.local.desktop.file.file.%s", uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)))
}

// TagEntityID generates a consistent entity ID for a tag label.
// Format: semtags.local.desktop.tag.tag.<uuid>
func TagEntityID(label string) string {
	return fmt.Sprintf("semtags.local.desktop.tag.tag.%s", uuid.NewSHA1(uuid.NameSpaceOID, []byte(label)))
}
