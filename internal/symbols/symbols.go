// Package symbols walks syntax trees with a scope stack, producing the
// symbol table (declarations) and reference table (uses) the relationship
// builder consumes. Extraction is a pure function of the tree: no package
// state, deterministic output.
package symbols

import "codegraph/internal/tree"

// Kind classifies a declared symbol.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindVariable  Kind = "variable"
	KindImport    Kind = "import"
	KindParameter Kind = "parameter"
)

// Symbol is a declared name with its defining scope. (Name, Scope) is the
// table key; redeclaration within a scope is last write wins.
type Symbol struct {
	Name   string     `json:"name"`
	Kind   Kind       `json:"kind"`
	Scope  string     `json:"scope"`
	Start  tree.Point `json:"start"`
	End    tree.Point `json:"end"`
	Params []string   `json:"params,omitempty"` // callables
	Bases  []string   `json:"bases,omitempty"`  // classes
	Module string     `json:"module,omitempty"` // imports: source module
}

// RefKind classifies how a name was used, which later selects the edge type.
type RefKind string

const (
	RefPlain     RefKind = "plain"
	RefCall      RefKind = "call"
	RefAttribute RefKind = "attribute"
)

// Reference is a non-declaring use of a name at some scope.
type Reference struct {
	Name  string     `json:"name"`
	Scope string     `json:"scope"`
	Kind  RefKind    `json:"kind"`
	Start tree.Point `json:"start"`
	End   tree.Point `json:"end"`
}

type symbolKey struct {
	name  string
	scope string
}

// Table holds symbols keyed by (name, scope), preserving first-insertion
// order for deterministic iteration.
type Table struct {
	order []symbolKey
	byKey map[symbolKey]*Symbol
	// scopeKinds records what sort of definition opened each scope path,
	// which reference resolution needs for class-scope skipping.
	scopeKinds map[string]ScopeKind
}

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return &Table{
		byKey:      map[symbolKey]*Symbol{},
		scopeKinds: map[string]ScopeKind{},
	}
}

// Add inserts or overwrites (last write wins) a symbol.
func (t *Table) Add(s Symbol) {
	k := symbolKey{name: s.Name, scope: s.Scope}
	if _, exists := t.byKey[k]; !exists {
		t.order = append(t.order, k)
	}
	cp := s
	t.byKey[k] = &cp
}

// Get returns the symbol declared as name directly in scope, or nil.
func (t *Table) Get(name, scope string) *Symbol {
	return t.byKey[symbolKey{name: name, scope: scope}]
}

// Len reports the number of distinct (name, scope) entries.
func (t *Table) Len() int { return len(t.order) }

// All iterates symbols in insertion order.
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byKey[k])
	}
	return out
}

// ScopeKindOf reports what opened a scope path; ScopeUnknown when the path
// was never pushed during extraction.
func (t *Table) ScopeKindOf(scope string) ScopeKind {
	if k, ok := t.scopeKinds[scope]; ok {
		return k
	}
	return ScopeUnknown
}

func (t *Table) recordScope(scope string, kind ScopeKind) {
	t.scopeKinds[scope] = kind
}

// RefTable is the ordered list of references found during a walk.
type RefTable struct {
	refs []Reference
}

// NewRefTable creates an empty reference table.
func NewRefTable() *RefTable { return &RefTable{} }

// Add appends a reference.
func (rt *RefTable) Add(r Reference) { rt.refs = append(rt.refs, r) }

// All returns references in the order they were encountered.
func (rt *RefTable) All() []Reference { return rt.refs }

// Len reports the reference count.
func (rt *RefTable) Len() int { return len(rt.refs) }

// Stats carries walk counters used to check extraction invariants.
type Stats struct {
	ScopePushes int
	ScopePops   int
	Skipped     int // malformed subtrees passed over with a warning
}

// Result bundles one extraction run's output.
type Result struct {
	Symbols    *Table
	References *RefTable
	Stats      Stats
}
