package tagstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semtags/triples"
	"github.com/c360studio/semtags/vocabulary/tags"
)

// GraphStore keeps tags in an embedded triple graph using the same resource
// layout a desktop indexer maintains:
//
//	file  -stored_as-> data object -url-> "url"
//	file  -has_tag->   tag
//	tag   -type->      nao:Tag
//	tag   -pref_label-> "label"
//
// Tag resources are keyed by label, so creating a tag twice never yields two
// resources. File resources exist only after IndexFile.
type GraphStore struct {
	graph triples.Graph
}

// NewGraphStore returns a store over g.
func NewGraphStore(g triples.Graph) *GraphStore {
	return &GraphStore{graph: g}
}

// ListTags implements Store.
func (s *GraphStore) ListTags(ctx context.Context, url string) ([]string, error) {
	if s.graph == nil {
		return nil, ErrNoConnection
	}
	files, err := s.filesAt(ctx, url)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var labels []string
	for _, file := range files {
		links, err := s.graph.Match(ctx, triples.Pattern{Subject: file, Predicate: tags.FileHasTag})
		if err != nil {
			return nil, fmt.Errorf("list tags of %s: %w", url, err)
		}
		for _, link := range links {
			tag, ok := link.Object.(string)
			if !ok {
				continue
			}
			names, err := s.labelsOf(ctx, tag)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				labels = append(labels, name)
			}
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// TagExists implements Store.
func (s *GraphStore) TagExists(ctx context.Context, label string) (bool, error) {
	if s.graph == nil {
		return false, ErrNoConnection
	}
	ids, err := s.tagsLabelled(ctx, label)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// CreateTag implements Store.
func (s *GraphStore) CreateTag(ctx context.Context, label string) (bool, error) {
	if s.graph == nil {
		return false, ErrNoConnection
	}
	if err := ValidateLabel(label); err != nil {
		return false, err
	}
	id := tags.TagIRI(label)
	err := s.graph.Insert(ctx,
		triples.New(id, tags.ResourceType, tags.ClassTag),
		triples.New(id, tags.TagPrefLabel, label),
	)
	if err != nil {
		return false, fmt.Errorf("create tag %q: %w", label, err)
	}
	return true, nil
}

// Associate implements Store. A url without a file resource fails with
// ErrNotIndexed and creates no tag.
func (s *GraphStore) Associate(ctx context.Context, url, label string) (bool, error) {
	if s.graph == nil {
		return false, ErrNoConnection
	}
	if err := ValidateLabel(label); err != nil {
		return false, err
	}
	files, err := s.filesAt(ctx, url)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		return false, fmt.Errorf("%w: %s", ErrNotIndexed, url)
	}
	if _, err := s.CreateTag(ctx, label); err != nil {
		return false, err
	}
	links, err := s.links(ctx, url, label)
	if err != nil {
		return false, err
	}
	if err := s.graph.Insert(ctx, links...); err != nil {
		return false, fmt.Errorf("tag %s with %q: %w", url, label, err)
	}
	return true, nil
}

// Disassociate implements Store.
func (s *GraphStore) Disassociate(ctx context.Context, url, label string) error {
	if s.graph == nil {
		return ErrNoConnection
	}
	links, err := s.links(ctx, url, label)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	if err := s.graph.Delete(ctx, links...); err != nil {
		return fmt.Errorf("untag %s from %q: %w", url, label, err)
	}
	return nil
}

// IndexFile implements Indexer.
func (s *GraphStore) IndexFile(ctx context.Context, url string) error {
	if s.graph == nil {
		return ErrNoConnection
	}
	file, data := tags.FileIRI(url), tags.DataObjectIRI(url)
	err := s.graph.Insert(ctx,
		triples.New(file, tags.FileStoredAs, data),
		triples.New(data, tags.DataURL, url),
	)
	if err != nil {
		return fmt.Errorf("index %s: %w", url, err)
	}
	return nil
}

// ForgetFile implements Indexer. The file's tag links go with it; the tag
// resources stay.
func (s *GraphStore) ForgetFile(ctx context.Context, url string) error {
	if s.graph == nil {
		return ErrNoConnection
	}
	data, err := s.graph.Match(ctx, triples.Pattern{Predicate: tags.DataURL, Object: url})
	if err != nil {
		return fmt.Errorf("forget %s: %w", url, err)
	}

	var doomed []message.Triple
	for _, object := range triples.Subjects(data) {
		stored, err := s.graph.Match(ctx, triples.Pattern{Predicate: tags.FileStoredAs, Object: object})
		if err != nil {
			return fmt.Errorf("forget %s: %w", url, err)
		}
		for _, file := range triples.Subjects(stored) {
			all, err := s.graph.Match(ctx, triples.Pattern{Subject: file})
			if err != nil {
				return fmt.Errorf("forget %s: %w", url, err)
			}
			doomed = append(doomed, all...)
		}
		all, err := s.graph.Match(ctx, triples.Pattern{Subject: object})
		if err != nil {
			return fmt.Errorf("forget %s: %w", url, err)
		}
		doomed = append(doomed, all...)
	}
	if len(doomed) == 0 {
		return nil
	}
	if err := s.graph.Delete(ctx, doomed...); err != nil {
		return fmt.Errorf("forget %s: %w", url, err)
	}
	return nil
}

// ListFiles implements FileLister.
func (s *GraphStore) ListFiles(ctx context.Context) ([]string, error) {
	if s.graph == nil {
		return nil, ErrNoConnection
	}
	found, err := s.graph.Match(ctx, triples.Pattern{Predicate: tags.DataURL})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return triples.Objects(found), nil
}

// filesAt returns the file resources stored at url.
func (s *GraphStore) filesAt(ctx context.Context, url string) ([]string, error) {
	data, err := s.graph.Match(ctx, triples.Pattern{Predicate: tags.DataURL, Object: url})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", url, err)
	}

	var files []string
	for _, object := range triples.Subjects(data) {
		stored, err := s.graph.Match(ctx, triples.Pattern{Predicate: tags.FileStoredAs, Object: object})
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", url, err)
		}
		files = append(files, triples.Subjects(stored)...)
	}
	return files, nil
}

// tagsLabelled returns the tag resources whose preferred label is label.
func (s *GraphStore) tagsLabelled(ctx context.Context, label string) ([]string, error) {
	named, err := s.graph.Match(ctx, triples.Pattern{Predicate: tags.TagPrefLabel, Object: label})
	if err != nil {
		return nil, fmt.Errorf("look up tag %q: %w", label, err)
	}

	var ids []string
	for _, id := range triples.Subjects(named) {
		typed, err := s.graph.Match(ctx, triples.Pattern{
			Subject:   id,
			Predicate: tags.ResourceType,
			Object:    tags.ClassTag,
		})
		if err != nil {
			return nil, fmt.Errorf("look up tag %q: %w", label, err)
		}
		if len(typed) > 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *GraphStore) labelsOf(ctx context.Context, tag string) ([]string, error) {
	typed, err := s.graph.Match(ctx, triples.Pattern{
		Subject:   tag,
		Predicate: tags.ResourceType,
		Object:    tags.ClassTag,
	})
	if err != nil {
		return nil, fmt.Errorf("read tag %s: %w", tag, err)
	}
	if len(typed) == 0 {
		return nil, nil
	}
	named, err := s.graph.Match(ctx, triples.Pattern{Subject: tag, Predicate: tags.TagPrefLabel})
	if err != nil {
		return nil, fmt.Errorf("read tag %s: %w", tag, err)
	}
	return triples.Objects(named), nil
}

// links builds the has_tag statements between the files at url and the tags
// labelled label.
func (s *GraphStore) links(ctx context.Context, url, label string) ([]message.Triple, error) {
	files, err := s.filesAt(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	ids, err := s.tagsLabelled(ctx, label)
	if err != nil {
		return nil, err
	}

	var out []message.Triple
	for _, file := range files {
		for _, id := range ids {
			out = append(out, triples.New(file, tags.FileHasTag, id))
		}
	}
	return out, nil
}
