package relationships

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/codeerr"
	"codegraph/internal/graph"
	"codegraph/internal/walker"
)

func build(t *testing.T, path, src string) *graph.Graph {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.AnalyzeSource(context.Background(), []byte(src), path))
	return b.Graph()
}

func edgesBetween(g *graph.Graph, sourceID, targetID string) []*graph.Edge {
	var out []*graph.Edge
	for _, e := range g.Edges() {
		if e.SourceID == sourceID && e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out
}

func TestModuleName(t *testing.T) {
	cases := map[string]string{
		"main.py":          "main",
		"pkg/util.py":      "pkg.util",
		"a/b/c.js":         "a.b.c",
		"/abs/path/mod.py": "abs.path.mod",
	}
	for path, want := range cases {
		assert.Equal(t, want, ModuleName(path), path)
	}
}

func TestBuilder_SingleImportInvariant(t *testing.T) {
	g := build(t, "a.py", "from module1 import func1\n")

	// Exactly one node beyond the module node, linked by exactly one
	// IMPORTS edge.
	require.Equal(t, 2, g.NodeCount())
	require.Equal(t, 1, g.EdgeCount())

	mod := g.Node("module:a")
	require.NotNil(t, mod)
	imp := g.Node("import:a:func1")
	require.NotNil(t, imp)
	assert.Equal(t, "module1", imp.Properties["module"])

	edges := edgesBetween(g, mod.ID, imp.ID)
	require.Len(t, edges, 1)
	assert.Equal(t, graph.EdgeImports, edges[0].Type)
}

func TestBuilder_NestedFunctionCall(t *testing.T) {
	g := build(t, "m.py", `def f():
    def g():
        pass
    g()
`)

	f := g.Node("function:m:f")
	inner := g.Node("function:m.f:g")
	require.NotNil(t, f)
	require.NotNil(t, inner)

	t.Run("containment follows definition scope", func(t *testing.T) {
		contains := edgesBetween(g, f.ID, inner.ID)
		var types []graph.EdgeType
		for _, e := range contains {
			types = append(types, e.Type)
		}
		assert.Contains(t, types, graph.EdgeContains)
		assert.Contains(t, types, graph.EdgeCalls)
	})

	t.Run("module contains only the outer function", func(t *testing.T) {
		mod := g.Node("module:m")
		require.NotNil(t, mod)
		assert.Empty(t, edgesBetween(g, mod.ID, inner.ID))
	})
}

func TestBuilder_ExternalPlaceholder(t *testing.T) {
	g := build(t, "m.py", "def caller():\n    missing_func()\n")

	caller := g.Node("function:m:caller")
	require.NotNil(t, caller)

	ext := g.Node("function:missing_func")
	require.NotNil(t, ext, "unresolved callee gets a placeholder node")
	assert.True(t, ext.External())

	edges := edgesBetween(g, caller.ID, ext.ID)
	require.Len(t, edges, 1)
	assert.Equal(t, graph.EdgeCalls, edges[0].Type)
}

func TestBuilder_DirectRecursionHasNoSelfEdge(t *testing.T) {
	g := build(t, "m.py", "def loop():\n    loop()\n")

	loop := g.Node("function:m:loop")
	require.NotNil(t, loop)
	assert.Empty(t, edgesBetween(g, loop.ID, loop.ID))
}

func TestBuilder_MutualRecursionCycles(t *testing.T) {
	g := build(t, "m.py", `def ping():
    pong()

def pong():
    ping()
`)

	ping := g.Node("function:m:ping")
	pong := g.Node("function:m:pong")
	require.NotNil(t, ping)
	require.NotNil(t, pong)

	assert.Len(t, edgesBetween(g, ping.ID, pong.ID), 1)
	assert.Len(t, edgesBetween(g, pong.ID, ping.ID), 1)
}

func TestBuilder_Inheritance(t *testing.T) {
	t.Run("local base", func(t *testing.T) {
		g := build(t, "m.py", `class Animal:
    pass

class Dog(Animal):
    pass
`)
		dog := g.Node("class:m:Dog")
		animal := g.Node("class:m:Animal")
		require.NotNil(t, dog)
		require.NotNil(t, animal)

		edges := edgesBetween(g, dog.ID, animal.ID)
		require.Len(t, edges, 1)
		assert.Equal(t, graph.EdgeInherits, edges[0].Type)
	})

	t.Run("external base", func(t *testing.T) {
		g := build(t, "m.py", "class Model(BaseModel):\n    pass\n")
		model := g.Node("class:m:Model")
		base := g.Node("class:BaseModel")
		require.NotNil(t, model)
		require.NotNil(t, base)
		assert.True(t, base.External())

		edges := edgesBetween(g, model.ID, base.ID)
		require.Len(t, edges, 1)
		assert.Equal(t, graph.EdgeInherits, edges[0].Type)
	})
}

func TestBuilder_MethodNodes(t *testing.T) {
	g := build(t, "m.py", `class Store:
    def get(self, key):
        return self.data[key]
`)

	cls := g.Node("class:m:Store")
	meth := g.Node("method:m.Store:get")
	require.NotNil(t, cls)
	require.NotNil(t, meth)

	assert.Empty(t, g.NodesByType(graph.NodeFunction), "methods stay methods")

	edges := edgesBetween(g, cls.ID, meth.ID)
	require.Len(t, edges, 1)
	assert.Equal(t, graph.EdgeContains, edges[0].Type)
}

func TestBuilder_NoDanglingEdges(t *testing.T) {
	g := build(t, "m.py", `import helpers
from utils import clean

class Pipeline(Base):
    def run(self, data):
        cleaned = clean(data)
        return helpers.finish(cleaned)
`)

	for _, e := range g.Edges() {
		assert.NotNil(t, g.Node(e.SourceID), "edge source must exist: %s", e.SourceID)
		assert.NotNil(t, g.Node(e.TargetID), "edge target must exist: %s", e.TargetID)
		assert.NotEqual(t, e.SourceID, e.TargetID)
	}
}

func TestBuilder_EdgeDeduplication(t *testing.T) {
	t.Run("same-line repeats collapse", func(t *testing.T) {
		g := build(t, "m.py", "def f():\n    helper(); helper()\n")

		f := g.Node("function:m:f")
		ext := g.Node("function:helper")
		require.NotNil(t, f)
		require.NotNil(t, ext)
		assert.Len(t, edgesBetween(g, f.ID, ext.ID), 1)
	})

	t.Run("distinct call sites each keep their edge", func(t *testing.T) {
		g := build(t, "m.py", `def f():
    helper()
    helper()
    helper()
`)

		f := g.Node("function:m:f")
		ext := g.Node("function:helper")
		require.NotNil(t, f)
		require.NotNil(t, ext)

		edges := edgesBetween(g, f.ID, ext.ID)
		require.Len(t, edges, 3, "each call site carries its own line provenance")
		lines := map[int]bool{}
		for _, e := range edges {
			lines[e.Properties.LineNumber] = true
		}
		assert.Equal(t, map[int]bool{2: true, 3: true, 4: true}, lines)
	})
}

func TestBuilder_RoundTripDeterminism(t *testing.T) {
	src := `from base import Component

class Widget(Component):
    def draw(self, canvas):
        render(canvas)

def make_widget():
    return Widget()
`
	e1 := build(t, "ui/widget.py", src).ToExport()
	e2 := build(t, "ui/widget.py", src).ToExport()
	assert.Equal(t, e1, e2, "identical input must produce identical exports")
}

func TestBuilder_MultiFile(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AnalyzeSource(context.Background(),
		[]byte("def shared():\n    pass\n"), "a.py"))
	require.NoError(t, b.AnalyzeSource(context.Background(),
		[]byte("def shared():\n    pass\n"), "b.py"))

	g := b.Graph()
	assert.NotNil(t, g.Node("function:a:shared"))
	assert.NotNil(t, g.Node("function:b:shared"), "same name in two files stays distinct")
}

func TestBuilder_AnalyzeDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.py"),
		[]byte("def entry():\n    pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "util.py"),
		[]byte("def helper():\n    pass\n"), 0o644))

	w, err := walker.New(walker.Config{})
	require.NoError(t, err)

	b := NewBuilder()
	require.NoError(t, b.AnalyzeDirectory(context.Background(), w, root))

	g := b.Graph()
	assert.NotNil(t, g.Node("function:top:entry"))
	assert.NotNil(t, g.Node("function:pkg.util:helper"), "module scope follows the relative path")

	t.Run("bad file does not abort the batch", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "blank.py"), nil, 0o644))

		b := NewBuilder()
		require.NoError(t, b.AnalyzeDirectory(context.Background(), w, root))

		g := b.Graph()
		assert.NotNil(t, g.Node("function:top:entry"), "good neighbors still analyzed")
		assert.Nil(t, g.Node("module:blank"), "the unparseable file contributes nothing")
	})
}

func TestBuilder_AnalyzeFileErrors(t *testing.T) {
	b := NewBuilder()

	t.Run("missing file", func(t *testing.T) {
		err := b.AnalyzeFile(context.Background(), "/no/such/file.py")
		require.Error(t, err)
		assert.True(t, codeerr.IsResource(err))
	})

	t.Run("empty source", func(t *testing.T) {
		err := b.AnalyzeSource(context.Background(), []byte("   "), "empty.py")
		require.Error(t, err)
		assert.True(t, codeerr.IsValidation(err))
	})
}

func TestBuilder_CreateNodeAndEdgeAPI(t *testing.T) {
	b := NewBuilder()

	n1, err := b.CreateNode("worker", graph.NodeFunction, Context{Scope: "m", StartLine: 1, EndLine: 3})
	require.NoError(t, err)

	again, err := b.CreateNode("worker", graph.NodeFunction, Context{Scope: "m", StartLine: 99})
	require.NoError(t, err)
	assert.Equal(t, n1.ID, again.ID, "creation is idempotent")
	assert.Equal(t, 1, b.Graph().NodeCount())

	t.Run("invalid type", func(t *testing.T) {
		_, err := b.CreateNode("x", graph.NodeType("gadget"), Context{})
		require.Error(t, err)
		assert.True(t, codeerr.IsValidation(err))
	})

	t.Run("edge endpoints must exist", func(t *testing.T) {
		_, err := b.CreateEdge(n1.ID, "function:m:ghost", graph.EdgeCalls, Context{})
		require.Error(t, err)
		assert.True(t, codeerr.IsValidation(err))
	})
}
