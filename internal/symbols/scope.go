package symbols

import "strings"

// ScopeKind tags what kind of definition opened a scope.
type ScopeKind uint8

const (
	ScopeUnknown ScopeKind = iota
	ScopeModule
	ScopeClass
	ScopeFunction
)

// ModuleScope is the default root scope path.
const ModuleScope = "module"

// ParentScope returns the enclosing scope path, or "" at the root.
func ParentScope(scope string) string {
	if i := strings.LastIndexByte(scope, '.'); i >= 0 {
		return scope[:i]
	}
	return ""
}

// ScopeBase returns the last path segment of a scope.
func ScopeBase(scope string) string {
	if i := strings.LastIndexByte(scope, '.'); i >= 0 {
		return scope[i+1:]
	}
	return scope
}

// JoinScope nests a name under a scope path.
func JoinScope(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}

// Resolve looks a referenced name up through the scope chain: the scope of
// the reference first, then each enclosing scope out to the module root.
//
// Class scopes are skipped when they are not the reference's own scope:
// a name in a class body is not visible from the methods nested inside it,
// matching Python closure semantics. Unresolved names return nil and become
// external placeholders downstream.
func (t *Table) Resolve(name, scope string) *Symbol {
	first := true
	for s := scope; s != ""; s = ParentScope(s) {
		if !first && t.ScopeKindOf(s) == ScopeClass {
			continue
		}
		if sym := t.Get(name, s); sym != nil {
			return sym
		}
		first = false
	}
	return nil
}
