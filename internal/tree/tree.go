// Package tree holds the language-neutral concrete syntax tree produced by
// the parser. Nodes live in a flat arena and refer to each other by integer
// handles, so ownership is unambiguous: every node has at most one parent
// and cycles cannot be expressed.
package tree

import "strings"

// NodeID is a handle into a SyntaxTree's node arena. The zero value is the
// root of a built tree; InvalidNode marks "no node".
type NodeID int32

// InvalidNode is returned by lookups that find nothing.
const InvalidNode NodeID = -1

// NodeKind is the closed set of node categories the pipeline dispatches on.
// Grammar node types the language table does not know map to KindUnknown,
// which walkers skip over (descending into children) rather than fail on.
type NodeKind uint8

const (
	KindUnknown NodeKind = iota
	KindModule
	KindImport     // whole-module import: "import x"
	KindImportFrom // from-import: "from x import a, b" / ES "import {a} from 'x'"
	KindFunction
	KindClass
	KindDecorated // decorator wrapper; real definition under field "definition"
	KindAssignment
	KindCall
	KindIdentifier
	KindAttribute // attribute / member access: obj.attr
	KindParameters
	KindParameter
	KindArguments
	KindBlock
	KindLiteral
	KindComment
	KindComprehension // comprehension / generator body: its own scope
	KindError         // grammar error node; subtree is best-effort
	KindOpaque        // degraded mode: raw text preserved as a single node
)

var kindNames = map[NodeKind]string{
	KindUnknown:    "unknown",
	KindModule:     "module",
	KindImport:     "import",
	KindImportFrom: "import_from",
	KindFunction:   "function",
	KindClass:      "class",
	KindDecorated:  "decorated",
	KindAssignment: "assignment",
	KindCall:       "call",
	KindIdentifier: "identifier",
	KindAttribute:  "attribute",
	KindParameters: "parameters",
	KindParameter:  "parameter",
	KindArguments:  "arguments",
	KindBlock:      "block",
	KindLiteral:    "literal",
	KindComment:    "comment",
	KindComprehension: "comprehension",
	KindError:         "error",
	KindOpaque:        "opaque",
}

func (k NodeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Point is a zero-based (row, column) source position.
type Point struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
}

// ImportedName is one name bound by an import statement, with its optional
// alias ("import x as y", "import {a as b} from 'm'").
type ImportedName struct {
	Name  string
	Alias string
}

// ImportDetail is the normalized form of an import node. The parser decodes
// language-specific import syntax once, during tree construction, so the
// analyzer and symbol extractor never touch grammar-level children.
type ImportDetail struct {
	Module string // module path as written, without relative-import dots
	Level  int    // relative-import depth: "from . import x" -> 1, "from .. import x" -> 2
	Names  []ImportedName
	// Wildcard is true for "from x import *".
	Wildcard bool
}

// Node is one element of the arena. Children are in source order.
type Node struct {
	Kind      NodeKind
	RawType   string // grammar-level type, kept for diagnostics and fallthrough logic
	Start     Point
	End       Point
	StartByte uint32
	EndByte   uint32
	Named     bool
	Children  []NodeID
	// Fields maps grammar field names ("name", "body", "left", ...) to
	// children, populated for the kinds that declare them.
	Fields map[string]NodeID
	// Import is set only on KindImport / KindImportFrom nodes.
	Import *ImportDetail
}

// SyntaxTree owns a parsed file's node arena. Immutable once built;
// re-parsing produces a new tree.
type SyntaxTree struct {
	Language string
	Degraded bool // true when the fallback parser produced this tree
	source   []byte
	nodes    []Node
	root     NodeID
}

// Builder assembles a SyntaxTree. Append-only: a node's children must be
// added before the node itself is sealed, which the parser's bottom-up
// conversion guarantees.
type Builder struct {
	t SyntaxTree
}

// NewBuilder starts a tree over the given source text.
func NewBuilder(language string, source []byte) *Builder {
	return &Builder{t: SyntaxTree{Language: language, source: source, root: InvalidNode}}
}

// Add places a node in the arena and returns its handle.
func (b *Builder) Add(n Node) NodeID {
	b.t.nodes = append(b.t.nodes, n)
	return NodeID(len(b.t.nodes) - 1)
}

// SetRoot marks the tree's root node.
func (b *Builder) SetRoot(id NodeID) { b.t.root = id }

// SetDegraded flags the tree as produced by the fallback parser.
func (b *Builder) SetDegraded() { b.t.Degraded = true }

// Build finalizes the tree. The builder must not be reused afterwards.
func (b *Builder) Build() *SyntaxTree {
	t := b.t
	b.t = SyntaxTree{}
	return &t
}

// Root returns the root handle, or InvalidNode for an unbuilt tree.
func (t *SyntaxTree) Root() NodeID { return t.root }

// Len returns the number of nodes in the arena.
func (t *SyntaxTree) Len() int { return len(t.nodes) }

// Source returns the raw text the tree was parsed from.
func (t *SyntaxTree) Source() []byte { return t.source }

// Get returns the node for a handle. Invalid handles return nil.
func (t *SyntaxTree) Get(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Text returns the source slice covered by a node, trimmed of surrounding
// whitespace the way downstream name handling expects.
func (t *SyntaxTree) Text(id NodeID) string {
	n := t.Get(id)
	if n == nil {
		return ""
	}
	if int(n.StartByte) > len(t.source) || int(n.EndByte) > len(t.source) || n.StartByte > n.EndByte {
		return ""
	}
	return strings.TrimSpace(string(t.source[n.StartByte:n.EndByte]))
}

// Field resolves a grammar field on a node, or InvalidNode.
func (t *SyntaxTree) Field(id NodeID, name string) NodeID {
	n := t.Get(id)
	if n == nil || n.Fields == nil {
		return InvalidNode
	}
	if c, ok := n.Fields[name]; ok {
		return c
	}
	return InvalidNode
}

// FieldText is Field followed by Text; empty when the field is absent.
func (t *SyntaxTree) FieldText(id NodeID, name string) string {
	c := t.Field(id, name)
	if c == InvalidNode {
		return ""
	}
	return t.Text(c)
}

// Walk calls fn for id and its whole subtree in depth-first source order.
// Returning false prunes descent below the current node.
func (t *SyntaxTree) Walk(id NodeID, fn func(NodeID, *Node) bool) {
	n := t.Get(id)
	if n == nil {
		return
	}
	if !fn(id, n) {
		return
	}
	for _, c := range n.Children {
		t.Walk(c, fn)
	}
}

// HasErrors reports whether any node in the tree is a grammar error node.
func (t *SyntaxTree) HasErrors() bool {
	for i := range t.nodes {
		if t.nodes[i].Kind == KindError {
			return true
		}
	}
	return false
}

// Validate checks the single-parent invariant over the whole arena. It is
// used by tests; the builder cannot produce a violating tree through its
// public surface, but handle lists are plain data.
func (t *SyntaxTree) Validate() bool {
	seen := make(map[NodeID]bool, len(t.nodes))
	for i := range t.nodes {
		for _, c := range t.nodes[i].Children {
			if c < 0 || int(c) >= len(t.nodes) || seen[c] {
				return false
			}
			seen[c] = true
		}
	}
	return !seen[t.root]
}
