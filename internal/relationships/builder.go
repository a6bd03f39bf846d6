// Package relationships turns per-file symbol and reference tables into the
// typed relationship graph. The builder owns the Graph for the duration of
// one analysis run; graph mutation is serialized behind its lock so
// extraction can fan out across files while building stays single-writer.
package relationships

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"codegraph/internal/codeerr"
	"codegraph/internal/graph"
	"codegraph/internal/parser"
	"codegraph/internal/symbols"
	"codegraph/internal/walker"
)

// Context carries provenance for node and edge creation.
type Context struct {
	FilePath  string
	Scope     string
	StartLine int
	EndLine   int
}

// Builder accumulates a relationship graph across files.
type Builder struct {
	mu        sync.Mutex
	g         *graph.Graph
	log       *slog.Logger
	seenEdges map[edgeKey]bool
}

type edgeKey struct {
	source string
	target string
	typ    graph.EdgeType
	line   int
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger routes builder diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// NewBuilder creates a Builder with a fresh graph.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		g:         graph.New(),
		log:       slog.Default(),
		seenEdges: map[edgeKey]bool{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Graph exposes the accumulated graph. Treat it as read-only once the run
// is over.
func (b *Builder) Graph() *graph.Graph { return b.g }

// ModuleName derives the module scope root for a file path: the path
// without extension, separators collapsed to dots, so scope paths stay
// unique across a directory tree.
func ModuleName(path string) string {
	p := strings.TrimSuffix(filepath.ToSlash(path), filepath.Ext(path))
	p = strings.Trim(p, "/")
	if p == "" {
		return symbols.ModuleScope
	}
	return strings.ReplaceAll(p, "/", ".")
}

// AnalyzeSource runs the parse -> extract -> build pipeline over in-memory
// source registered under the given path.
func (b *Builder) AnalyzeSource(ctx context.Context, source []byte, path string) error {
	t, err := parser.Parse(ctx, source,
		parser.WithFilePath(path), parser.WithLogger(b.log))
	if err != nil {
		return err
	}
	ext := symbols.NewExtractor(
		symbols.WithModuleName(ModuleName(path)),
		symbols.WithLogger(b.log))
	return b.AddFileTables(path, ext.Extract(t))
}

// AnalyzeDirectory walks root with the given walker and analyzes every file
// it yields. Per-file failures are logged and skipped so one bad file never
// aborts the batch; only walk-level errors (missing root, file-count breach)
// end the run.
func (b *Builder) AnalyzeDirectory(ctx context.Context, w *walker.Walker, root string) error {
	return w.Scan(root, func(f walker.File) error {
		source, err := os.ReadFile(f.Path)
		if err != nil {
			b.log.Warn("file skipped", "path", f.Path, "err", err)
			return nil
		}
		// Scopes key off the root-relative path so module names stay stable
		// no matter where the tree sits on disk.
		if err := b.AnalyzeSource(ctx, source, f.RelPath); err != nil {
			b.log.Warn("file skipped", "path", f.RelPath, "err", err)
		}
		return nil
	})
}

// AnalyzeFile reads a file from disk and analyzes it.
func (b *Builder) AnalyzeFile(ctx context.Context, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return codeerr.Resourcef(path, "file not found")
		}
		return codeerr.Resourcef(path, "read failed: %v", err)
	}
	return b.AnalyzeSource(ctx, source, path)
}

// AddFileTables merges one file's extraction result into the graph. This is
// the entry point for merge-after-parallel-extract callers: workers extract
// concurrently, one goroutine feeds results here in a stable order.
func (b *Builder) AddFileTables(path string, res *symbols.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fc := &fileContext{
		path:       path,
		moduleName: ModuleName(path),
		table:      res.Symbols,
		scopeNodes: map[string]string{},
	}

	if err := b.seedModuleNode(fc); err != nil {
		return err
	}
	if err := b.processSymbols(fc); err != nil {
		return err
	}
	b.processReferences(fc, res.References)
	return nil
}

// fileContext is the per-file build state: the symbol table plus the map
// from scope path to the graph node that opened it.
type fileContext struct {
	path       string
	moduleName string
	table      *symbols.Table
	scopeNodes map[string]string
}

func (b *Builder) seedModuleNode(fc *fileContext) error {
	mod, err := b.createNodeLocked(fc.moduleName, graph.NodeModule, Context{
		FilePath: fc.path,
	})
	if err != nil {
		return err
	}
	fc.scopeNodes[fc.moduleName] = mod.ID
	return nil
}

// processSymbols creates one graph node per symbol, in table order, wiring
// CONTAINS from each enclosing definition as the symbol is first created,
// IMPORTS for import bindings, and INHERITS for class base lists.
func (b *Builder) processSymbols(fc *fileContext) error {
	for _, sym := range fc.table.All() {
		node, err := b.createNodeLocked(sym.Name, nodeTypeFor(sym), Context{
			FilePath:  fc.path,
			Scope:     sym.Scope,
			StartLine: int(sym.Start.Row) + 1,
			EndLine:   int(sym.End.Row) + 1,
		})
		if err != nil {
			return err
		}

		switch sym.Kind {
		case symbols.KindFunction, symbols.KindMethod, symbols.KindClass:
			fc.scopeNodes[symbols.JoinScope(sym.Scope, sym.Name)] = node.ID
		case symbols.KindImport:
			if sym.Module != "" {
				if node.Properties == nil {
					node.Properties = map[string]any{}
				}
				node.Properties["module"] = sym.Module
			}
		}

		parent := b.enclosingScopeNode(fc, sym.Scope)
		if parent != nil && parent.ID != node.ID {
			edgeType := graph.EdgeContains
			if sym.Kind == symbols.KindImport {
				// An import binds exactly one node and one IMPORTS edge from
				// its module; no separate node for the source module and no
				// duplicate symbol edge.
				edgeType = graph.EdgeImports
			}
			b.emitEdge(parent.ID, node.ID, edgeType, graph.EdgeProps{
				LineNumber: int(sym.Start.Row) + 1,
				Scope:      sym.Scope,
			})
		}

		if sym.Kind == symbols.KindClass {
			if err := b.linkBases(fc, sym, node); err != nil {
				return err
			}
		}
	}
	return nil
}

// linkBases resolves each base-list entry through the scope chain and emits
// INHERITS edges, falling back to external class placeholders.
func (b *Builder) linkBases(fc *fileContext, cls *symbols.Symbol, classNode *graph.Node) error {
	for _, base := range cls.Bases {
		var target *graph.Node
		if sym := fc.table.Resolve(base, cls.Scope); sym != nil {
			target = b.g.Node(graph.NodeID(nodeTypeFor(sym), sym.Scope, sym.Name))
		}
		if target == nil {
			var err error
			target, err = b.externalNodeLocked(base, graph.NodeClass)
			if err != nil {
				return err
			}
		}
		if target.ID == classNode.ID {
			continue
		}
		b.emitEdge(classNode.ID, target.ID, graph.EdgeInherits, graph.EdgeProps{
			LineNumber: int(cls.Start.Row) + 1,
			Scope:      cls.Scope,
		})
	}
	return nil
}

// CreateNode adds (or returns) the node identified by (name, type, context
// scope). Validation failures are typed errors the caller can classify.
func (b *Builder) CreateNode(name string, t graph.NodeType, ctx Context) (*graph.Node, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createNodeLocked(name, t, ctx)
}

func (b *Builder) createNodeLocked(name string, t graph.NodeType, ctx Context) (*graph.Node, error) {
	return b.g.AddNode(&graph.Node{
		Name:      name,
		Type:      t,
		Scope:     ctx.Scope,
		FilePath:  ctx.FilePath,
		StartLine: ctx.StartLine,
		EndLine:   ctx.EndLine,
	})
}

// CreateEdge validates and adds one edge. Endpoints must exist already.
func (b *Builder) CreateEdge(sourceID, targetID string, t graph.EdgeType, ctx Context) (*graph.Edge, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.g.AddEdge(sourceID, targetID, t, graph.EdgeProps{
		LineNumber: ctx.StartLine,
		Scope:      ctx.Scope,
	})
}

// emitEdge adds an edge once per (source, target, type, line) for the run:
// repeats of the same reference event are dropped, while distinct call sites
// between the same pair each keep their edge and line provenance.
func (b *Builder) emitEdge(sourceID, targetID string, t graph.EdgeType, props graph.EdgeProps) {
	key := edgeKey{source: sourceID, target: targetID, typ: t, line: props.LineNumber}
	if b.seenEdges[key] {
		return
	}
	if _, err := b.g.AddEdge(sourceID, targetID, t, props); err != nil {
		b.log.Warn("edge rejected", "source", sourceID, "target", targetID, "type", t, "err", err)
		return
	}
	b.seenEdges[key] = true
}

// externalNodeLocked creates (or fetches) the placeholder standing in for a
// name outside the analyzed set.
func (b *Builder) externalNodeLocked(name string, t graph.NodeType) (*graph.Node, error) {
	n, err := b.g.AddNode(&graph.Node{
		Name:       name,
		Type:       t,
		Properties: map[string]any{"external": true},
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// enclosingScopeNode walks a scope path outward until it finds a scope with
// a graph node (anonymous comprehension scopes have none), bottoming out at
// the module node.
func (b *Builder) enclosingScopeNode(fc *fileContext, scope string) *graph.Node {
	for s := scope; s != ""; s = symbols.ParentScope(s) {
		if id, ok := fc.scopeNodes[s]; ok {
			return b.g.Node(id)
		}
	}
	if id, ok := fc.scopeNodes[fc.moduleName]; ok {
		return b.g.Node(id)
	}
	return nil
}

func nodeTypeFor(sym *symbols.Symbol) graph.NodeType {
	switch sym.Kind {
	case symbols.KindFunction:
		return graph.NodeFunction
	case symbols.KindMethod:
		return graph.NodeMethod
	case symbols.KindClass:
		return graph.NodeClass
	case symbols.KindImport:
		return graph.NodeImport
	case symbols.KindParameter, symbols.KindVariable:
		return graph.NodeVariable
	default:
		return graph.NodeVariable
	}
}
