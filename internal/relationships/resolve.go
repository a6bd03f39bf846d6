package relationships

import (
	"codegraph/internal/graph"
	"codegraph/internal/symbols"
)

// processReferences emits exactly one edge per reference event. A reference
// that cannot be resolved against the symbol table becomes an edge to an
// external placeholder node instead of being dropped: a call into an
// unanalyzed library is still a real relationship.
func (b *Builder) processReferences(fc *fileContext, refs *symbols.RefTable) {
	for _, ref := range refs.All() {
		if err := b.processReferenceLocked(fc, ref); err != nil {
			// Placeholder fallback failed too; skip this one reference and
			// keep the batch going.
			b.log.Warn("reference skipped",
				"name", ref.Name, "scope", ref.Scope, "err", err)
		}
	}
}

// ProcessReference resolves and links a single reference using the given
// file's symbol table. Exposed for callers driving references one at a
// time; batch building goes through AddFileTables.
func (b *Builder) ProcessReference(path string, table *symbols.Table, ref symbols.Reference) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fc := &fileContext{
		path:       path,
		moduleName: ModuleName(path),
		table:      table,
		scopeNodes: map[string]string{},
	}
	if err := b.seedModuleNode(fc); err != nil {
		return err
	}
	return b.processReferenceLocked(fc, ref)
}

func (b *Builder) processReferenceLocked(fc *fileContext, ref symbols.Reference) error {
	target, err := b.resolveTarget(fc, ref)
	if err != nil {
		return err
	}

	source := b.referenceSource(fc, ref)
	if source == nil || source.ID == target.ID {
		// No enclosing definition to attribute the use to, or the reference
		// is the definition referring to itself; either way there is no
		// valid edge to emit.
		return nil
	}

	b.emitEdge(source.ID, target.ID, edgeTypeFor(ref), graph.EdgeProps{
		LineNumber: int(ref.Start.Row) + 1,
		Scope:      ref.Scope,
	})
	return nil
}

// resolveTarget walks the scope chain (innermost outward, class scopes
// skipped per the symbol table's resolution rule) and falls back to an
// external placeholder typed by how the name was used.
func (b *Builder) resolveTarget(fc *fileContext, ref symbols.Reference) (*graph.Node, error) {
	if sym := fc.table.Resolve(ref.Name, ref.Scope); sym != nil {
		id := graph.NodeID(nodeTypeFor(sym), sym.Scope, sym.Name)
		if n := b.g.Node(id); n != nil {
			return n, nil
		}
		// Symbol known but node missing: the symbol pass failed validation
		// for it earlier. Recreate rather than drop.
		return b.createNodeLocked(sym.Name, nodeTypeFor(sym), Context{
			FilePath:  fc.path,
			Scope:     sym.Scope,
			StartLine: int(sym.Start.Row) + 1,
			EndLine:   int(sym.End.Row) + 1,
		})
	}
	return b.externalNodeLocked(ref.Name, placeholderTypeFor(ref))
}

// referenceSource finds the definition node the reference occurred inside:
// the innermost enclosing scope that opened a graph node, or the module
// node for top-level code.
func (b *Builder) referenceSource(fc *fileContext, ref symbols.Reference) *graph.Node {
	return b.enclosingScopeNode(fc, ref.Scope)
}

func edgeTypeFor(ref symbols.Reference) graph.EdgeType {
	switch ref.Kind {
	case symbols.RefCall:
		return graph.EdgeCalls
	default:
		return graph.EdgeReferences
	}
}

// placeholderTypeFor picks the external node type a use implies: a call
// wants a callable, a dotted chain an attribute, anything else a variable.
func placeholderTypeFor(ref symbols.Reference) graph.NodeType {
	switch ref.Kind {
	case symbols.RefCall:
		return graph.NodeFunction
	case symbols.RefAttribute:
		return graph.NodeAttribute
	default:
		return graph.NodeVariable
	}
}
