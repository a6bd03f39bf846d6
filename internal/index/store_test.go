package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "idx", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	mod, err := g.AddNode(&graph.Node{Name: "app", Type: graph.NodeModule, FilePath: "app.py"})
	require.NoError(t, err)
	fn, err := g.AddNode(&graph.Node{
		Name: "run", Type: graph.NodeFunction, Scope: "app",
		FilePath: "app.py", StartLine: 3, EndLine: 9,
		Properties: map[string]any{"module": "app"},
	})
	require.NoError(t, err)
	_, err = g.AddEdge(mod.ID, fn.ID, graph.EdgeContains, graph.EdgeProps{LineNumber: 3, Scope: "app"})
	require.NoError(t, err)
	return g
}

func TestStore_GraphRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	g := sampleGraph(t)
	require.NoError(t, s.SaveGraph(ctx, g))

	loaded, err := s.LoadGraph(ctx)
	require.NoError(t, err)

	assert.Equal(t, g.NodeCount(), loaded.NodeCount())
	assert.Equal(t, g.EdgeCount(), loaded.EdgeCount())

	fn := loaded.Node("function:app:run")
	require.NotNil(t, fn)
	assert.Equal(t, "run", fn.Name)
	assert.Equal(t, "app.py", fn.FilePath)
	assert.Equal(t, 3, fn.StartLine)
	assert.Equal(t, "app", fn.Properties["module"])

	edges := loaded.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, graph.EdgeContains, edges[0].Type)
	assert.Equal(t, 3, edges[0].Properties.LineNumber)

	t.Run("save replaces prior snapshot", func(t *testing.T) {
		small := graph.New()
		_, err := small.AddNode(&graph.Node{Name: "solo", Type: graph.NodeModule})
		require.NoError(t, err)
		require.NoError(t, s.SaveGraph(ctx, small))

		loaded, err := s.LoadGraph(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.NodeCount())
		assert.Equal(t, 0, loaded.EdgeCount())
	})
}

func TestStore_Manifest(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	t.Run("unindexed file is stale", func(t *testing.T) {
		stale, err := s.Stale(ctx, "a.py", "h1")
		require.NoError(t, err)
		assert.True(t, stale)
	})

	t.Run("recorded hash matches", func(t *testing.T) {
		require.NoError(t, s.RecordFile(ctx, "a.py", "h1"))

		stale, err := s.Stale(ctx, "a.py", "h1")
		require.NoError(t, err)
		assert.False(t, stale)

		stale, err = s.Stale(ctx, "a.py", "h2")
		require.NoError(t, err)
		assert.True(t, stale, "changed content must read as stale")
	})

	t.Run("forget", func(t *testing.T) {
		require.NoError(t, s.ForgetFile(ctx, "a.py"))
		hash, err := s.FileHash(ctx, "a.py")
		require.NoError(t, err)
		assert.Empty(t, hash)
	})

	t.Run("count tracks the recorded set", func(t *testing.T) {
		require.NoError(t, s.RecordFile(ctx, "a.py", "h1"))
		require.NoError(t, s.RecordFile(ctx, "b.py", "h2"))

		n, err := s.FileCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("saving a graph resets the manifest", func(t *testing.T) {
		require.NoError(t, s.SaveGraph(ctx, sampleGraph(t)))

		n, err := s.FileCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n, "manifest entries must not outlive the snapshot they described")
	})
}

func TestHashing(t *testing.T) {
	t.Run("stable and content sensitive", func(t *testing.T) {
		a := HashContent([]byte("x = 1\n"))
		b := HashContent([]byte("x = 1\n"))
		c := HashContent([]byte("x = 2\n"))
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
	})

	t.Run("file hashing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "f.py")
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

		h, err := HashFile(path)
		require.NoError(t, err)
		assert.Equal(t, HashContent([]byte("x = 1\n")), h)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := HashFile(filepath.Join(t.TempDir(), "nope.py"))
		require.Error(t, err)
	})
}
