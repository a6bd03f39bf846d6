package graph

// NodeType classifies a graph node. The set is closed: anything else is a
// validation error at creation time.
type NodeType string

const (
	NodeFunction  NodeType = "function"
	NodeMethod    NodeType = "method"
	NodeClass     NodeType = "class"
	NodeVariable  NodeType = "variable"
	NodeModule    NodeType = "module"
	NodeImport    NodeType = "import"
	NodeAttribute NodeType = "attribute"
)

var validNodeTypes = map[NodeType]bool{
	NodeFunction:  true,
	NodeMethod:    true,
	NodeClass:     true,
	NodeVariable:  true,
	NodeModule:    true,
	NodeImport:    true,
	NodeAttribute: true,
}

// ValidNodeType reports whether t is a member of the node-type enum.
func ValidNodeType(t NodeType) bool { return validNodeTypes[t] }

// EdgeType classifies a directed relationship.
type EdgeType string

const (
	EdgeContains   EdgeType = "CONTAINS"
	EdgeCalls      EdgeType = "CALLS"
	EdgeInherits   EdgeType = "INHERITS"
	EdgeImports    EdgeType = "IMPORTS"
	EdgeReferences EdgeType = "REFERENCES"
)

var validEdgeTypes = map[EdgeType]bool{
	EdgeContains:   true,
	EdgeCalls:      true,
	EdgeInherits:   true,
	EdgeImports:    true,
	EdgeReferences: true,
}

// ValidEdgeType reports whether t is a member of the edge-type enum.
func ValidEdgeType(t EdgeType) bool { return validEdgeTypes[t] }

// Node is a code entity in the relationship graph. IDs are stable across
// repeated construction from identical input: they derive from
// (type, scope, name) only.
type Node struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       NodeType       `json:"type"`
	Scope      string         `json:"scope,omitempty"`
	FilePath   string         `json:"file_path,omitempty"`
	StartLine  int            `json:"start_line"`
	EndLine    int            `json:"end_line"`
	Properties map[string]any `json:"properties,omitempty"`
}

// External reports whether this node stands in for a name outside the
// analyzed set.
func (n *Node) External() bool {
	if n.Properties == nil {
		return false
	}
	ext, _ := n.Properties["external"].(bool)
	return ext
}

// EdgeProps is the provenance carried by every edge.
type EdgeProps struct {
	LineNumber int    `json:"line_number,omitempty"`
	Scope      string `json:"scope,omitempty"`
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	SourceID   string    `json:"source_id"`
	TargetID   string    `json:"target_id"`
	Type       EdgeType  `json:"type"`
	Properties EdgeProps `json:"properties"`
}

// NodeID builds the stable node id for a (type, scope, name) identity.
func NodeID(t NodeType, scope, name string) string {
	if scope == "" {
		return string(t) + ":" + name
	}
	return string(t) + ":" + scope + ":" + name
}
