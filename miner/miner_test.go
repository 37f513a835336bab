package miner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semtags/extension"
	"github.com/c360studio/semtags/tagstore"
	"github.com/c360studio/semtags/triples"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func uriOf(t *testing.T, path string) string {
	t.Helper()
	uri, err := extension.PathToURI(path)
	require.NoError(t, err)
	return uri
}

func TestFilterMatch(t *testing.T) {
	f := Filter{Include: []string{"**/*.txt", "docs/**"}, Exclude: DefaultExclude}

	tests := []struct {
		rel  string
		want bool
	}{
		{"a.txt", true},
		{"deep/dir/b.txt", true},
		{"docs/report.pdf", true},
		{"image.png", false},
		{".hidden.txt", false},
		{".git/config.txt", false},
		{"dir/.cache/c.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Match(tt.rel))
		})
	}

	assert.True(t, f.SkipDir(".git"))
	assert.False(t, f.SkipDir("docs"))
	assert.False(t, f.SkipDir("."))
	assert.True(t, Filter{}.Match("anything"))
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{Include: []string{"**/*.go"}}.Validate())

	err := Filter{Exclude: []string{"[unclosed"}}.Validate()
	var pe *PatternError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "[unclosed", pe.Pattern)
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"))
	writeFile(t, filepath.Join(dir, "sub", "b.txt"))
	writeFile(t, filepath.Join(dir, "sub", "c.md"))

	t.Run("recursive glob", func(t *testing.T) {
		got, err := ResolvePaths([]string{filepath.Join(dir, "**", "*.txt")}, Files)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(dir, "a.txt"),
			filepath.Join(dir, "sub", "b.txt"),
		}, got)
	})

	t.Run("literal path deduplicated", func(t *testing.T) {
		p := filepath.Join(dir, "a.txt")
		got, err := ResolvePaths([]string{p, p}, Files)
		require.NoError(t, err)
		assert.Equal(t, []string{p}, got)
	})

	t.Run("directories", func(t *testing.T) {
		got, err := ResolvePaths([]string{filepath.Join(dir, "*")}, Dirs)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "sub")}, got)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		_, err := ResolvePaths([]string{dir}, Files)
		assert.Error(t, err)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := ResolvePaths([]string{filepath.Join(dir, "*.none")}, Files)
		assert.Error(t, err)
	})
}

func TestIndexRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"))
	writeFile(t, filepath.Join(dir, "sub", "b.txt"))
	writeFile(t, filepath.Join(dir, ".git", "HEAD"))

	store := tagstore.NewGraphStore(triples.NewMemoryGraph())
	ix := NewIndexer(store, Filter{Exclude: DefaultExclude}, nil)

	n, err := ix.IndexRoot(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	files, err := store.ListFiles(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		uriOf(t, filepath.Join(dir, "a.txt")),
		uriOf(t, filepath.Join(dir, "sub", "b.txt")),
	}, files)
}

func waitFor(t *testing.T, events <-chan WatchEvent, path string, op WatchOperation) WatchEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == path && ev.Operation == op {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event for %s", op, path)
			return WatchEvent{}
		}
	}
}

func TestWatcherIndexesAndForgets(t *testing.T) {
	dir := t.TempDir()
	store := tagstore.NewGraphStore(triples.NewMemoryGraph())
	ix := NewIndexer(store, Filter{Exclude: DefaultExclude}, nil)

	w, err := NewWatcher(WatcherConfig{Root: dir, DebounceDelay: 20 * time.Millisecond}, ix)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	ctx := context.Background()
	path := filepath.Join(dir, "new.txt")
	writeFile(t, path)

	ev := waitFor(t, w.Events(), path, OpIndex)
	require.NoError(t, ev.Error)

	_, err = store.Associate(ctx, uriOf(t, path), "work")
	require.NoError(t, err)
	labels, err := store.ListTags(ctx, uriOf(t, path))
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, labels)

	require.NoError(t, os.Remove(path))
	ev = waitFor(t, w.Events(), path, OpForget)
	require.NoError(t, ev.Error)

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWatcherStopTwice(t *testing.T) {
	store := tagstore.NewGraphStore(triples.NewMemoryGraph())
	ix := NewIndexer(store, Filter{}, nil)

	w, err := NewWatcher(WatcherConfig{Root: t.TempDir()}, ix)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	assert.NotPanics(t, func() { assert.NoError(t, w.Stop()) })

	_, open := <-w.Events()
	assert.False(t, open)
}

func TestWatcherNewDirectory(t *testing.T) {
	dir := t.TempDir()
	store := tagstore.NewGraphStore(triples.NewMemoryGraph())
	ix := NewIndexer(store, Filter{Exclude: DefaultExclude}, nil)

	w, err := NewWatcher(WatcherConfig{Root: dir, DebounceDelay: 20 * time.Millisecond}, ix)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	path := filepath.Join(dir, "nested", "late.txt")
	want := uriOf(t, path)
	writeFile(t, path)

	require.Eventually(t, func() bool {
		files, err := store.ListFiles(context.Background())
		return err == nil && len(files) == 1 && files[0] == want
	}, 5*time.Second, 20*time.Millisecond)
}
