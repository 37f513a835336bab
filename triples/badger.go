package triples

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/c360studio/semstreams/message"
	"github.com/dgraph-io/badger/v4"
)

const (
	subjectPrefix    = "s:"
	maxConflictRetry = 5
)

// BadgerGraph persists triples in a Badger database, one key per subject.
type BadgerGraph struct {
	db *badger.DB
}

// OpenBadgerGraph opens or creates a graph at path. An empty path opens an
// in-memory database.
func OpenBadgerGraph(path string) (*BadgerGraph, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerGraph{db: db}, nil
}

// Close closes the underlying database.
func (g *BadgerGraph) Close() error {
	return g.db.Close()
}

// Match implements Graph.
func (g *BadgerGraph) Match(_ context.Context, p Pattern) ([]message.Triple, error) {
	var out []message.Triple
	err := g.db.View(func(txn *badger.Txn) error {
		if p.Subject != "" {
			list, err := readSubject(txn, p.Subject)
			if err != nil {
				return err
			}
			out = filter(list, p)
			return nil
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(subjectPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var list []message.Triple
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &list)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, filter(list, p)...)
		}
		return nil
	})
	return out, err
}

// Insert implements Graph.
func (g *BadgerGraph) Insert(_ context.Context, triples ...message.Triple) error {
	if err := validate(triples); err != nil {
		return err
	}
	return g.updateSubjects(triples, merge)
}

// Delete implements Graph.
func (g *BadgerGraph) Delete(_ context.Context, triples ...message.Triple) error {
	return g.updateSubjects(triples, remove)
}

func (g *BadgerGraph) updateSubjects(
	triples []message.Triple,
	apply func([]message.Triple, []message.Triple) ([]message.Triple, bool),
) error {
	groups, order := bySubject(triples)

	var err error
	for attempt := 0; attempt < maxConflictRetry; attempt++ {
		err = g.db.Update(func(txn *badger.Txn) error {
			for _, subject := range order {
				list, err := readSubject(txn, subject)
				if err != nil {
					return err
				}
				list, changed := apply(list, groups[subject])
				if !changed {
					continue
				}
				if err := writeSubject(txn, subject, list); err != nil {
					return err
				}
			}
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("update triples: %w", err)
}

func readSubject(txn *badger.Txn, subject string) ([]message.Triple, error) {
	item, err := txn.Get(subjectKey(subject))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", subject, err)
	}

	var list []message.Triple
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &list)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", subject, err)
	}
	return list, nil
}

func writeSubject(txn *badger.Txn, subject string, list []message.Triple) error {
	if len(list) == 0 {
		return txn.Delete(subjectKey(subject))
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	return txn.Set(subjectKey(subject), data)
}

func subjectKey(subject string) []byte {
	return []byte(subjectPrefix + subject)
}

func filter(list []message.Triple, p Pattern) []message.Triple {
	var out []message.Triple
	for _, t := range list {
		if p.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
