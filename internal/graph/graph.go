// Package graph is the in-memory directed multigraph over code entities.
// One Graph instance accumulates a whole analysis run and is read-only once
// handed to consumers; mutation during a run is the relationship builder's
// job and is serialized there.
package graph

import (
	"sort"

	"codegraph/internal/codeerr"
)

// Direction selects which edges Neighbors follows.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

// Graph holds nodes by id plus directed, typed edges. CALLS and REFERENCES
// cycles are legitimate (recursion); only CONTAINS is acyclic, and that by
// construction, not enforcement.
type Graph struct {
	nodes map[string]*Node
	order []string // node insertion order, for deterministic iteration
	edges []*Edge
	out   map[string][]*Edge
	in    map[string][]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: map[string]*Node{},
		out:   map[string][]*Edge{},
		in:    map[string][]*Edge{},
	}
}

// AddNode inserts a node, or returns the existing one when the id is
// already present (idempotent creation is the contract all the way down).
func (g *Graph) AddNode(n *Node) (*Node, error) {
	if n == nil || n.Name == "" {
		return nil, codeerr.Validationf("node name must be non-empty")
	}
	if !ValidNodeType(n.Type) {
		return nil, codeerr.Validationf("invalid node type %q", n.Type)
	}
	if n.ID == "" {
		n.ID = NodeID(n.Type, n.Scope, n.Name)
	}
	if existing, ok := g.nodes[n.ID]; ok {
		return existing, nil
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return n, nil
}

// AddEdge connects two existing nodes. Both endpoints must already be in
// the graph (nodes before edges), and self-edges are rejected.
func (g *Graph) AddEdge(sourceID, targetID string, t EdgeType, props EdgeProps) (*Edge, error) {
	if !ValidEdgeType(t) {
		return nil, codeerr.Validationf("invalid edge type %q", t)
	}
	if sourceID == targetID {
		return nil, codeerr.Validationf("self-edge rejected for %q", sourceID)
	}
	if g.nodes[sourceID] == nil || g.nodes[targetID] == nil {
		return nil, codeerr.Validationf("source or target node does not exist (%q -> %q)", sourceID, targetID)
	}

	e := &Edge{SourceID: sourceID, TargetID: targetID, Type: t, Properties: props}
	g.edges = append(g.edges, e)
	g.out[sourceID] = append(g.out[sourceID], e)
	g.in[targetID] = append(g.in[targetID], e)
	return e, nil
}

// Node returns a node by id, or nil.
func (g *Graph) Node(id string) *Node { return g.nodes[id] }

// NodeCount reports how many nodes the graph holds.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount reports how many edges the graph holds.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Neighbors returns the distinct nodes adjacent to id in the given
// direction, optionally filtered to certain edge types.
func (g *Graph) Neighbors(id string, dir Direction, types ...EdgeType) []*Node {
	filter := map[EdgeType]bool{}
	for _, t := range types {
		filter[t] = true
	}
	match := func(t EdgeType) bool { return len(filter) == 0 || filter[t] }

	seen := map[string]bool{}
	var out []*Node
	appendNode := func(nid string) {
		if !seen[nid] {
			seen[nid] = true
			out = append(out, g.nodes[nid])
		}
	}

	if dir == Outgoing || dir == Both {
		for _, e := range g.out[id] {
			if match(e.Type) {
				appendNode(e.TargetID)
			}
		}
	}
	if dir == Incoming || dir == Both {
		for _, e := range g.in[id] {
			if match(e.Type) {
				appendNode(e.SourceID)
			}
		}
	}
	return out
}

// NodesByType returns nodes of one type, insertion order.
func (g *Graph) NodesByType(t NodeType) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// NodesByFile returns nodes recorded against one file path, insertion order.
func (g *Graph) NodesByFile(path string) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.FilePath == path {
			out = append(out, n)
		}
	}
	return out
}

// EnclosingNode finds the innermost function/method/class in a file whose
// span covers the given line. Used to attribute references to their
// containing definition.
func (g *Graph) EnclosingNode(path string, line int) *Node {
	var best *Node
	for _, id := range g.order {
		n := g.nodes[id]
		if n.FilePath != path || line < n.StartLine || line > n.EndLine {
			continue
		}
		switch n.Type {
		case NodeFunction, NodeMethod, NodeClass:
			if best == nil || (n.EndLine-n.StartLine) < (best.EndLine-best.StartLine) {
				best = n
			}
		}
	}
	return best
}

// Export is the serializable form of a graph: plain node and edge lists,
// both sorted for run-to-run stability.
type Export struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// ToExport snapshots the graph into its serializable structure.
func (g *Graph) ToExport() *Export {
	nodes := g.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Properties.LineNumber < b.Properties.LineNumber
	})

	return &Export{Nodes: nodes, Edges: edges}
}
