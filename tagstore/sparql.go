package tagstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/c360studio/semtags/sparql"
	"github.com/c360studio/semtags/vocabulary/tags"
)

// SPARQLStore runs the tag templates against a SPARQL connection.
type SPARQLStore struct {
	conn      sparql.Connection
	templates *sparql.Templates
}

// NewSPARQLStore returns a store over conn. A nil conn yields a store whose
// every call fails with ErrNoConnection.
func NewSPARQLStore(conn sparql.Connection, ns tags.Namespaces) *SPARQLStore {
	return &SPARQLStore{
		conn:      conn,
		templates: sparql.NewTemplates(ns),
	}
}

// ListTags implements Store.
func (s *SPARQLStore) ListTags(ctx context.Context, url string) ([]string, error) {
	if s.conn == nil {
		return nil, ErrNoConnection
	}
	res, err := s.conn.Query(ctx, s.templates.ListTags(url))
	if err != nil {
		return nil, fmt.Errorf("list tags of %s: %w", url, err)
	}
	labels := res.Strings(sparql.LabelVar)
	sort.Strings(labels)
	return labels, nil
}

// TagExists implements Store.
func (s *SPARQLStore) TagExists(ctx context.Context, label string) (bool, error) {
	if s.conn == nil {
		return false, ErrNoConnection
	}
	res, err := s.conn.Query(ctx, s.templates.TagExists(label))
	if err != nil {
		return false, fmt.Errorf("look up tag %q: %w", label, err)
	}
	return res.Len() > 0, nil
}

// CreateTag implements Store.
func (s *SPARQLStore) CreateTag(ctx context.Context, label string) (bool, error) {
	if s.conn == nil {
		return false, ErrNoConnection
	}
	if err := ValidateLabel(label); err != nil {
		return false, err
	}
	if err := s.conn.Update(ctx, s.templates.CreateTag(label)); err != nil {
		return false, fmt.Errorf("create tag %q: %w", label, err)
	}
	return true, nil
}

// Associate implements Store.
func (s *SPARQLStore) Associate(ctx context.Context, url, label string) (bool, error) {
	if _, err := s.CreateTag(ctx, label); err != nil {
		return false, err
	}
	if err := s.conn.Update(ctx, s.templates.Associate(url, label)); err != nil {
		return false, fmt.Errorf("tag %s with %q: %w", url, label, err)
	}
	return true, nil
}

// Disassociate implements Store.
func (s *SPARQLStore) Disassociate(ctx context.Context, url, label string) error {
	if s.conn == nil {
		return ErrNoConnection
	}
	if err := s.conn.Update(ctx, s.templates.Disassociate(url, label)); err != nil {
		return fmt.Errorf("untag %s from %q: %w", url, label, err)
	}
	return nil
}
