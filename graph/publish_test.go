package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semtags/vocabulary/tags"
)

type capturePublisher struct {
	subjects []string
	payloads []EntityPayload
	err      error
}

func (c *capturePublisher) PublishToStream(_ context.Context, subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	var p EntityPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, p)
	return nil
}

func TestPublisherTagsChanged(t *testing.T) {
	nc := &capturePublisher{}
	p := NewPublisher(nc)
	url := "file:///home/user/a.txt"

	require.NoError(t, p.TagsChanged(context.Background(), url, []string{"x", "y"}))

	require.Len(t, nc.payloads, 3)
	for _, s := range nc.subjects {
		assert.Equal(t, GraphIngestSubject, s)
	}

	file := nc.payloads[0]
	assert.Equal(t, FileEntityID(url), file.ID)
	require.Len(t, file.TripleData, 3)
	assert.Equal(t, tags.DataURL, file.TripleData[0].Predicate)
	assert.Equal(t, url, file.TripleData[0].Object)
	assert.Equal(t, TagEntityID("x"), file.TripleData[1].Object)
	assert.Equal(t, TagEntityID("y"), file.TripleData[2].Object)

	tag := nc.payloads[1]
	assert.Equal(t, TagEntityID("x"), tag.ID)
	assert.Equal(t, "x", tag.TripleData[1].Object)
}

func TestPublisherNilClient(t *testing.T) {
	assert.NoError(t, NewPublisher(nil).TagsChanged(context.Background(), "file:///a", []string{"x"}))

	var p *Publisher
	assert.NoError(t, p.TagsChanged(context.Background(), "file:///a", nil))
}

func TestPublisherError(t *testing.T) {
	p := NewPublisher(&capturePublisher{err: errors.New("no stream")})
	err := p.TagsChanged(context.Background(), "file:///a", nil)
	assert.Error(t, err)
}

func TestEntityIDs(t *testing.T) {
	assert.Equal(t, FileEntityID("file:///a"), FileEntityID("file:///a"))
	assert.NotEqual(t, FileEntityID("file:///a"), FileEntityID("file:///b"))
	assert.Regexp(t, `^semtags\.local\.desktop\.tag\.tag\.[0-9a-f-]{36}$`, TagEntityID("work"))
}

func TestEntityPayload(t *testing.T) {
	t.Run("registered", func(t *testing.T) {
		p := component.CreatePayload("semtags", "entity", "v1")
		_, ok := p.(*EntityPayload)
		assert.True(t, ok)
	})

	t.Run("validate", func(t *testing.T) {
		assert.Error(t, (&EntityPayload{}).Validate())

		now := time.Now()
		p := &EntityPayload{ID: "a", TripleData: []message.Triple{newTriple("a", tags.DataURL, "file:///a", now)}}
		assert.NoError(t, p.Validate())

		p.TripleData = append(p.TripleData, newTriple("b", tags.DataURL, "file:///b", now))
		assert.Error(t, p.Validate())
	})
}
