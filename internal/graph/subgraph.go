package graph

import "sort"

// Subgraph is a depth-bounded neighborhood around seed nodes, used for
// scoped exports (analysis depth) and impact reporting.
type Subgraph struct {
	MaxHops int      `json:"max_hops"`
	SeedIDs []string `json:"seed_ids"`
	NodeIDs []string `json:"node_ids"`
	Edges   []*Edge  `json:"edges"`
}

// NeighborhoodConfig controls subgraph extraction.
type NeighborhoodConfig struct {
	MaxHops      int
	AllowedTypes map[EdgeType]bool // nil means every edge type
}

// Neighborhood walks outward from the seeds up to MaxHops, following edges
// in both directions, and returns the covered region. Traversal order is
// made deterministic by sorting frontiers; output lists are sorted.
func (g *Graph) Neighborhood(seedIDs []string, cfg NeighborhoodConfig) *Subgraph {
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}

	allowed := func(e *Edge) bool {
		return len(cfg.AllowedTypes) == 0 || cfg.AllowedTypes[e.Type]
	}

	seeds := make([]string, 0, len(seedIDs))
	visited := map[string]int{}
	for _, id := range seedIDs {
		if g.nodes[id] != nil {
			seeds = append(seeds, id)
			visited[id] = 0
		}
	}
	sort.Strings(seeds)

	type hop struct {
		id    string
		depth int
	}
	queue := make([]hop, 0, len(seeds))
	for _, id := range seeds {
		queue = append(queue, hop{id: id, depth: 0})
	}

	edgeSeen := map[string]bool{}
	var edges []*Edge
	takeEdge := func(e *Edge) {
		key := e.SourceID + "->" + e.TargetID + ":" + string(e.Type)
		if !edgeSeen[key] {
			edgeSeen[key] = true
			edges = append(edges, e)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= cfg.MaxHops {
			continue
		}
		for _, e := range g.out[cur.id] {
			if !allowed(e) {
				continue
			}
			takeEdge(e)
			if d, ok := visited[e.TargetID]; !ok || cur.depth+1 < d {
				visited[e.TargetID] = cur.depth + 1
				queue = append(queue, hop{id: e.TargetID, depth: cur.depth + 1})
			}
		}
		for _, e := range g.in[cur.id] {
			if !allowed(e) {
				continue
			}
			takeEdge(e)
			if d, ok := visited[e.SourceID]; !ok || cur.depth+1 < d {
				visited[e.SourceID] = cur.depth + 1
				queue = append(queue, hop{id: e.SourceID, depth: cur.depth + 1})
			}
		}
	}

	nodeIDs := make([]string, 0, len(visited))
	for id := range visited {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Type < b.Type
	})

	return &Subgraph{
		MaxHops: cfg.MaxHops,
		SeedIDs: seeds,
		NodeIDs: nodeIDs,
		Edges:   edges,
	}
}

// ToExport materializes a subgraph as a standalone export against its
// parent graph.
func (s *Subgraph) ToExport(g *Graph) *Export {
	nodes := make([]*Node, 0, len(s.NodeIDs))
	for _, id := range s.NodeIDs {
		if n := g.Node(id); n != nil {
			nodes = append(nodes, n)
		}
	}
	return &Export{Nodes: nodes, Edges: s.Edges}
}
