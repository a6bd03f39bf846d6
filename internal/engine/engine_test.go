package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/codeerr"
	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/index"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"models.py": `class Base:
    pass

class User(Base):
    def name(self):
        return self.n
`,
		"app.py": `from models import User

def main():
    u = User()
    return u
`,
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
	}
	return root
}

func TestEngine_Analyze(t *testing.T) {
	root := writeProject(t)
	eng := New(config.Default())

	res, err := eng.Analyze(context.Background(), Request{TargetPath: root})
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 2, res.Metadata.FilesAnalyzed)
	assert.Empty(t, res.Metadata.FailedFiles)
	assert.NotEmpty(t, res.Metadata.RunID)
	assert.Equal(t, res.Graph.EdgeCount(), res.Metadata.RelationshipsFound)

	t.Run("graph spans both files", func(t *testing.T) {
		assert.NotNil(t, res.Graph.Node("class:models:User"))
		assert.NotNil(t, res.Graph.Node("function:app:main"))
		assert.NotNil(t, res.Graph.Node("method:models.User:name"))
	})

	t.Run("output is valid graph JSON", func(t *testing.T) {
		var export graph.Export
		require.NoError(t, json.Unmarshal([]byte(res.Output), &export))
		assert.NotEmpty(t, export.Nodes)
	})
}

func TestEngine_MapFormat(t *testing.T) {
	root := writeProject(t)
	res, err := New(config.Default()).Analyze(context.Background(),
		Request{TargetPath: root, Format: FormatMap})
	require.NoError(t, err)

	assert.Contains(t, res.Output, "class User")
	assert.Contains(t, res.Output, "def main")
	assert.Contains(t, res.Output, "models.py")
}

func TestEngine_Determinism(t *testing.T) {
	root := writeProject(t)
	eng := New(config.Default())

	r1, err := eng.Analyze(context.Background(), Request{TargetPath: root})
	require.NoError(t, err)
	r2, err := New(config.Default()).Analyze(context.Background(), Request{TargetPath: root})
	require.NoError(t, err)

	assert.Equal(t, r1.Output, r2.Output, "same tree must serialize identically across runs")
}

func TestEngine_RequestValidation(t *testing.T) {
	eng := New(config.Default())

	t.Run("empty target", func(t *testing.T) {
		_, err := eng.Analyze(context.Background(), Request{})
		require.Error(t, err)
		assert.True(t, codeerr.IsValidation(err))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := eng.Analyze(context.Background(), Request{TargetPath: ".", Format: "xml"})
		require.Error(t, err)
		assert.True(t, codeerr.IsValidation(err))
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := eng.Analyze(context.Background(),
			Request{TargetPath: filepath.Join(t.TempDir(), "ghost")})
		require.Error(t, err)
		assert.True(t, codeerr.IsResource(err))
	})
}

func TestEngine_PartialFailure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "good.py"), []byte("def ok():\n    pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.py"), nil, 0o644))

	res, err := New(config.Default()).Analyze(context.Background(), Request{TargetPath: root})
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status, "per-file failures live in metadata, not status")
	assert.Equal(t, 1, res.Metadata.FilesAnalyzed)
	require.Len(t, res.Metadata.FailedFiles, 1)
	assert.Equal(t, "empty.py", res.Metadata.FailedFiles[0].Path)
	assert.NotNil(t, res.Graph.Node("function:good:ok"))
}

func TestEngine_IncrementalSkip(t *testing.T) {
	root := writeProject(t)
	store, err := index.Open(filepath.Join(t.TempDir(), "idx.db"))
	require.NoError(t, err)
	defer store.Close()

	eng := New(config.Default(), WithStore(store))

	first, err := eng.Analyze(context.Background(), Request{TargetPath: root})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Metadata.FilesAnalyzed)

	t.Run("second run loads from the index", func(t *testing.T) {
		second, err := eng.Analyze(context.Background(), Request{TargetPath: root})
		require.NoError(t, err)
		assert.Equal(t, 0, second.Metadata.FilesAnalyzed)
		assert.Equal(t, 2, second.Metadata.FilesSkipped)
		assert.Equal(t, first.Graph.NodeCount(), second.Graph.NodeCount())
	})

	t.Run("edit invalidates the fast path", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"),
			[]byte("def changed():\n    pass\n"), 0o644))

		third, err := eng.Analyze(context.Background(), Request{TargetPath: root})
		require.NoError(t, err)
		assert.Equal(t, 2, third.Metadata.FilesAnalyzed)
		assert.NotNil(t, third.Graph.Node("function:app:changed"))
	})

	t.Run("deletion invalidates the fast path", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(root, "models.py")))

		fourth, err := eng.Analyze(context.Background(), Request{TargetPath: root})
		require.NoError(t, err)
		assert.Equal(t, 1, fourth.Metadata.FilesAnalyzed)
		assert.Equal(t, 0, fourth.Metadata.FilesSkipped)
		assert.Nil(t, fourth.Graph.Node("class:models:User"),
			"symbols from a deleted file must not survive the rebuild")
	})
}

func TestRenderGraph_ExternalFilter(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "m.py"),
		[]byte("def f():\n    library_call()\n"), 0o644))

	withExt, err := New(config.Default()).Analyze(context.Background(),
		Request{TargetPath: root, IncludeExternal: true})
	require.NoError(t, err)
	assert.Contains(t, withExt.Output, "library_call")

	withoutExt, err := New(config.Default()).Analyze(context.Background(),
		Request{TargetPath: root, IncludeExternal: false})
	require.NoError(t, err)
	assert.NotContains(t, withoutExt.Output, "library_call")
}
