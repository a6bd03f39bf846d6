package tree

// Helpers for the handful of structural questions both the analyzer and the
// symbol extractor ask of a tree.

// DeclaredName returns the text of a definition node's "name" field.
func (t *SyntaxTree) DeclaredName(id NodeID) string {
	return t.FieldText(id, "name")
}

// UnwrapDecorated steps through decorator wrappers to the real definition.
// Non-decorated nodes pass through unchanged.
func (t *SyntaxTree) UnwrapDecorated(id NodeID) NodeID {
	n := t.Get(id)
	if n == nil || n.Kind != KindDecorated {
		return id
	}
	if def := t.Field(id, "definition"); def != InvalidNode {
		return def
	}
	// Grammar put the definition last among the children.
	for i := len(n.Children) - 1; i >= 0; i-- {
		switch t.Get(n.Children[i]).Kind {
		case KindFunction, KindClass:
			return n.Children[i]
		}
	}
	return id
}

// FunctionParams lists a function definition's parameter names in source
// order. Simple parameters appear as bare identifiers under the parameters
// node; typed and defaulted ones as KindParameter with a name field or a
// leading identifier.
func (t *SyntaxTree) FunctionParams(fn NodeID) []string {
	params := t.Field(fn, "parameters")
	if params == InvalidNode {
		return nil
	}
	var names []string
	for _, c := range t.Get(params).Children {
		cn := t.Get(c)
		switch cn.Kind {
		case KindIdentifier:
			names = append(names, t.Text(c))
		case KindParameter:
			if name := t.FieldText(c, "name"); name != "" {
				names = append(names, name)
				continue
			}
			for _, gc := range cn.Children {
				if t.Get(gc).Kind == KindIdentifier {
					names = append(names, t.Text(gc))
					break
				}
			}
		}
	}
	return names
}

// ParamNodes returns the parameter-bearing child nodes themselves, paired
// with their names, for callers that need spans.
func (t *SyntaxTree) ParamNodes(fn NodeID) []NodeID {
	params := t.Field(fn, "parameters")
	if params == InvalidNode {
		return nil
	}
	var out []NodeID
	for _, c := range t.Get(params).Children {
		switch t.Get(c).Kind {
		case KindIdentifier, KindParameter:
			out = append(out, c)
		}
	}
	return out
}

// ParamName resolves the declared name of one entry from ParamNodes.
func (t *SyntaxTree) ParamName(param NodeID) string {
	n := t.Get(param)
	if n == nil {
		return ""
	}
	if n.Kind == KindIdentifier {
		return t.Text(param)
	}
	if name := t.FieldText(param, "name"); name != "" {
		return name
	}
	for _, c := range n.Children {
		if t.Get(c).Kind == KindIdentifier {
			return t.Text(c)
		}
	}
	return ""
}

// ClassBases lists a class definition's base-list entries: identifiers and
// dotted attribute paths, in source order.
func (t *SyntaxTree) ClassBases(cls NodeID) []string {
	sup := t.Field(cls, "superclasses")
	if sup == InvalidNode {
		return nil
	}
	var bases []string
	for _, c := range t.Get(sup).Children {
		switch t.Get(c).Kind {
		case KindIdentifier, KindAttribute:
			if s := t.Text(c); s != "" && s != "extends" {
				bases = append(bases, s)
			}
		}
	}
	return bases
}

// BaseNodes returns the base-list entry nodes for callers needing spans.
func (t *SyntaxTree) BaseNodes(cls NodeID) []NodeID {
	sup := t.Field(cls, "superclasses")
	if sup == InvalidNode {
		return nil
	}
	var out []NodeID
	for _, c := range t.Get(sup).Children {
		switch t.Get(c).Kind {
		case KindIdentifier, KindAttribute:
			out = append(out, c)
		}
	}
	return out
}
