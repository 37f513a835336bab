package triples

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerGraph(t *testing.T) {
	g, err := OpenBadgerGraph(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	exerciseGraph(t, g)
}

func TestBadgerGraphPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	g, err := OpenBadgerGraph(dir)
	require.NoError(t, err)
	require.NoError(t, g.Insert(ctx, New("urn:f", "p:label", "work")))
	require.NoError(t, g.Close())

	g, err = OpenBadgerGraph(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	got, err := g.Match(ctx, Pattern{Subject: "urn:f"})
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, Objects(got))
}

func TestBadgerGraphInMemory(t *testing.T) {
	g, err := OpenBadgerGraph("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	require.NoError(t, g.Insert(context.Background(), New("urn:f", "p", "o")))
	got, err := g.Match(context.Background(), Pattern{Object: "o"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
