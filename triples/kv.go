package triples

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the KV bucket used when none is configured.
const DefaultBucket = "SEMTAGS_TRIPLES"

// KVGraph stores triples in a NATS KV bucket, one key per subject. Updates
// use compare-and-swap so several processes can share a bucket.
type KVGraph struct {
	bucket jetstream.KeyValue
	kv     *natsclient.KVStore
}

// NewKVGraph opens the bucket, creating it if needed.
func NewKVGraph(ctx context.Context, client *natsclient.Client, bucket string) (*KVGraph, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "semtags triple storage",
		History:     5,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", bucket, err)
	}
	return &KVGraph{
		bucket: kv,
		kv:     client.NewKVStore(kv),
	}, nil
}

// Match implements Graph.
func (g *KVGraph) Match(ctx context.Context, p Pattern) ([]message.Triple, error) {
	if p.Subject != "" {
		list, err := g.read(ctx, kvKey(p.Subject))
		if err != nil {
			return nil, err
		}
		return filter(list, p), nil
	}

	keys, err := g.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list triple keys: %w", err)
	}

	var out []message.Triple
	for _, key := range keys {
		list, err := g.read(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, filter(list, p)...)
	}
	return out, nil
}

// Insert implements Graph.
func (g *KVGraph) Insert(ctx context.Context, triples ...message.Triple) error {
	if err := validate(triples); err != nil {
		return err
	}
	return g.update(ctx, triples, merge)
}

// Delete implements Graph.
func (g *KVGraph) Delete(ctx context.Context, triples ...message.Triple) error {
	return g.update(ctx, triples, remove)
}

func (g *KVGraph) update(
	ctx context.Context,
	triples []message.Triple,
	apply func([]message.Triple, []message.Triple) ([]message.Triple, bool),
) error {
	groups, order := bySubject(triples)
	for _, subject := range order {
		err := g.kv.UpdateWithRetry(ctx, kvKey(subject), func(current []byte) ([]byte, error) {
			var list []message.Triple
			if len(current) > 0 {
				if err := json.Unmarshal(current, &list); err != nil {
					return nil, fmt.Errorf("decode %s: %w", subject, err)
				}
			}
			list, _ = apply(list, groups[subject])
			if list == nil {
				list = []message.Triple{}
			}
			return json.Marshal(list)
		})
		if err != nil {
			return fmt.Errorf("update %s: %w", subject, err)
		}
	}
	return nil
}

func (g *KVGraph) read(ctx context.Context, key string) ([]message.Triple, error) {
	entry, err := g.kv.Get(ctx, key)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	var list []message.Triple
	if err := json.Unmarshal(entry.Value, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return list, nil
}

// kvKey maps a subject IRI onto the KV key alphabet.
func kvKey(subject string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(subject))
}
