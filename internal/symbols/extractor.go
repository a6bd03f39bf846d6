package symbols

import (
	"fmt"
	"log/slog"

	"codegraph/internal/tree"
)

// Names never recorded as references or parameter symbols: receiver
// conventions and keyword-ish identifiers the grammars surface as plain
// identifiers.
var ignoredNames = map[string]bool{
	"self": true, "cls": true,
	"None": true, "True": true, "False": true,
	"this": true, "super": true, "undefined": true,
}

// Extractor walks a tree into symbol and reference tables. Stateless and
// safe for concurrent use; each Extract call threads its own walk state.
type Extractor struct {
	log        *slog.Logger
	moduleName string
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithModuleName replaces the default "module" root scope name, letting
// directory-level callers key scopes by file module.
func WithModuleName(name string) ExtractorOption {
	return func(e *Extractor) {
		if name != "" {
			e.moduleName = name
		}
	}
}

// WithLogger routes recovery warnings.
func WithLogger(l *slog.Logger) ExtractorOption {
	return func(e *Extractor) { e.log = l }
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{log: slog.Default(), moduleName: ModuleScope}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// walkState is the extraction context threaded through the recursive walk.
// Nothing here outlives one Extract call.
type walkState struct {
	t      *tree.SyntaxTree
	scopes []scopeFrame
	syms   *Table
	refs   *RefTable
	stats  Stats
	log    *slog.Logger
}

type scopeFrame struct {
	path string
	kind ScopeKind
}

func (w *walkState) scope() scopeFrame { return w.scopes[len(w.scopes)-1] }

func (w *walkState) push(path string, kind ScopeKind) {
	w.scopes = append(w.scopes, scopeFrame{path: path, kind: kind})
	w.syms.recordScope(path, kind)
	w.stats.ScopePushes++
}

func (w *walkState) pop() {
	w.scopes = w.scopes[:len(w.scopes)-1]
	w.stats.ScopePops++
}

// Extract builds the symbol and reference tables for a tree. The scope
// stack starts at the module scope; push and pop calls balance over the
// walk, leaving the stack back at that root on return.
func (e *Extractor) Extract(t *tree.SyntaxTree) *Result {
	w := &walkState{
		t:    t,
		syms: NewTable(),
		refs: NewRefTable(),
		log:  e.log,
	}
	w.scopes = append(w.scopes, scopeFrame{path: e.moduleName, kind: ScopeModule})
	w.syms.recordScope(e.moduleName, ScopeModule)

	if root := t.Root(); root != tree.InvalidNode {
		for _, c := range t.Get(root).Children {
			walkNode(w, c)
		}
	}

	return &Result{Symbols: w.syms, References: w.refs, Stats: w.stats}
}

// walkNode dispatches on the node kind. Unknown kinds are transparent:
// the node itself is skipped but its children are walked, so statement
// wrappers and grammar constructs the table does not know about never stop
// extraction.
func walkNode(w *walkState, id tree.NodeID) {
	n := w.t.Get(id)
	if n == nil {
		return
	}

	switch n.Kind {
	case tree.KindDecorated:
		walkNode(w, w.t.UnwrapDecorated(id))

	case tree.KindFunction:
		walkFunction(w, id, n)

	case tree.KindClass:
		walkClass(w, id, n)

	case tree.KindImport, tree.KindImportFrom:
		recordImports(w, n)

	case tree.KindAssignment:
		walkAssignment(w, id, n)

	case tree.KindCall:
		walkCall(w, id, n)

	case tree.KindIdentifier:
		recordReference(w, n, w.t.Text(id), RefPlain)

	case tree.KindAttribute:
		walkAttribute(w, id, n, RefAttribute)

	case tree.KindComprehension:
		// Comprehension bodies get their own anonymous scope, named by
		// position so identical trees produce identical scope paths.
		path := JoinScope(w.scope().path, fmt.Sprintf("<comp:%d:%d>", n.Start.Row, n.Start.Column))
		w.push(path, ScopeFunction)
		for _, c := range n.Children {
			walkNode(w, c)
		}
		w.pop()

	case tree.KindError:
		// One bad subtree must not stop extraction of the rest of the file.
		w.stats.Skipped++
		w.log.Warn("skipping malformed subtree",
			"row", n.Start.Row, "col", n.Start.Column, "raw_type", n.RawType)

	case tree.KindComment, tree.KindLiteral, tree.KindOpaque:
		// Nothing to extract.

	default:
		for _, c := range n.Children {
			walkNode(w, c)
		}
	}
}

// walkFunction records the definition at the current scope, pushes the
// function's own scope (before its body children are processed), records
// parameters inside it, walks the body, and pops exactly once.
func walkFunction(w *walkState, id tree.NodeID, n *tree.Node) {
	name := w.t.DeclaredName(id)
	if name == "" {
		// Anonymous function (arrow, lambda-like): no symbol, no named
		// scope; its body still yields references at the current scope.
		if body := w.t.Field(id, "body"); body != tree.InvalidNode {
			walkNode(w, body)
		}
		return
	}

	cur := w.scope()
	kind := KindFunction
	if cur.kind == ScopeClass {
		kind = KindMethod
	}

	params := w.t.FunctionParams(id)
	w.syms.Add(Symbol{
		Name:   name,
		Kind:   kind,
		Scope:  cur.path,
		Start:  n.Start,
		End:    n.End,
		Params: params,
	})

	inner := JoinScope(cur.path, name)
	w.push(inner, ScopeFunction)
	for _, p := range w.t.ParamNodes(id) {
		pname := w.t.ParamName(p)
		if pname == "" || ignoredNames[pname] {
			continue
		}
		pn := w.t.Get(p)
		w.syms.Add(Symbol{
			Name:  pname,
			Kind:  KindParameter,
			Scope: inner,
			Start: pn.Start,
			End:   pn.End,
		})
	}
	if body := w.t.Field(id, "body"); body != tree.InvalidNode {
		walkNode(w, body)
	}
	w.pop()
}

// walkClass records the class (bases captured on the symbol, where the
// relationship builder turns them into INHERITS edges), then walks the body
// under the class scope.
func walkClass(w *walkState, id tree.NodeID, n *tree.Node) {
	name := w.t.DeclaredName(id)
	if name == "" {
		return
	}

	cur := w.scope()
	w.syms.Add(Symbol{
		Name:  name,
		Kind:  KindClass,
		Scope: cur.path,
		Start: n.Start,
		End:   n.End,
		Bases: w.t.ClassBases(id),
	})

	w.push(JoinScope(cur.path, name), ScopeClass)
	if body := w.t.Field(id, "body"); body != tree.InvalidNode {
		walkNode(w, body)
	}
	w.pop()
}

// recordImports mirrors the analyzer's per-name split: one import-kind
// symbol per bound name, aliases winning over source names.
func recordImports(w *walkState, n *tree.Node) {
	if n.Import == nil {
		return
	}
	scope := w.scope().path
	for _, imp := range n.Import.Names {
		bound := imp.Name
		if imp.Alias != "" {
			bound = imp.Alias
		}
		if bound == "" {
			continue
		}
		w.syms.Add(Symbol{
			Name:   bound,
			Kind:   KindImport,
			Scope:  scope,
			Start:  n.Start,
			End:    n.End,
			Module: n.Import.Module,
		})
	}
}

// walkAssignment records the target as a variable symbol and everything on
// the right-hand side as references.
func walkAssignment(w *walkState, id tree.NodeID, n *tree.Node) {
	left := w.t.Field(id, "left")
	if left == tree.InvalidNode {
		left = w.t.Field(id, "name")
	}
	right := w.t.Field(id, "right")
	if right == tree.InvalidNode {
		right = w.t.Field(id, "value")
	}

	if left != tree.InvalidNode {
		ln := w.t.Get(left)
		switch ln.Kind {
		case tree.KindIdentifier:
			name := w.t.Text(left)
			if name != "" && !ignoredNames[name] {
				w.syms.Add(Symbol{
					Name:  name,
					Kind:  KindVariable,
					Scope: w.scope().path,
					Start: n.Start,
					End:   n.End,
				})
			}
		default:
			// Attribute or destructuring target: uses, not declarations.
			walkNode(w, left)
		}
	}

	if right != tree.InvalidNode {
		walkNode(w, right)
	}
}

// walkCall records the callee as a call-kind reference. Attribute callees
// keep their dotted text so unresolved library calls stay recognizable, and
// the receiver chain still produces plain references.
func walkCall(w *walkState, id tree.NodeID, n *tree.Node) {
	callee := w.t.Field(id, "function")
	if callee == tree.InvalidNode {
		callee = w.t.Field(id, "constructor")
	}
	if callee != tree.InvalidNode {
		cn := w.t.Get(callee)
		switch cn.Kind {
		case tree.KindIdentifier:
			recordReference(w, cn, w.t.Text(callee), RefCall)
		case tree.KindAttribute:
			walkAttribute(w, callee, cn, RefCall)
		default:
			walkNode(w, callee)
		}
	}

	if args := w.t.Field(id, "arguments"); args != tree.InvalidNode {
		walkNode(w, args)
	}
}

// walkAttribute records a reference for the full dotted path and a plain
// reference for the chain's root identifier. Chains rooted at an ignored
// receiver (self.x, this.y) contribute nothing.
func walkAttribute(w *walkState, id tree.NodeID, n *tree.Node, kind RefKind) {
	root := attributeRoot(w.t, id)
	if root != tree.InvalidNode {
		rootName := w.t.Text(root)
		if ignoredNames[rootName] {
			return
		}
		recordReference(w, w.t.Get(root), rootName, RefPlain)
	}
	recordReference(w, n, w.t.Text(id), kind)
}

// attributeRoot follows object fields down to the leftmost identifier of a
// dotted chain; InvalidNode when the chain is rooted in a call or literal.
func attributeRoot(t *tree.SyntaxTree, id tree.NodeID) tree.NodeID {
	for {
		obj := t.Field(id, "object")
		if obj == tree.InvalidNode {
			return tree.InvalidNode
		}
		switch t.Get(obj).Kind {
		case tree.KindIdentifier:
			return obj
		case tree.KindAttribute:
			id = obj
		default:
			return tree.InvalidNode
		}
	}
}

func recordReference(w *walkState, n *tree.Node, name string, kind RefKind) {
	if name == "" || ignoredNames[name] {
		return
	}
	w.refs.Add(Reference{
		Name:  name,
		Scope: w.scope().path,
		Kind:  kind,
		Start: n.Start,
		End:   n.End,
	})
}
