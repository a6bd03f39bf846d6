// Package analysis answers "what breaks if these lines change" over the
// relationship graph.
package analysis

import (
	"codegraph/internal/gitdiff"
	"codegraph/internal/graph"
)

// ImpactReport summarizes the graph nodes affected by a set of changes.
// Directly affected nodes span a changed line; indirectly affected nodes
// depend on a directly affected one.
type ImpactReport struct {
	DirectlyAffected   []*graph.Node
	IndirectlyAffected []*graph.Node
}

// Impact identifies which nodes are affected by the given changes.
func Impact(g *graph.Graph, changes []gitdiff.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.Node{},
		IndirectlyAffected: []*graph.Node{},
	}

	seenDirect := make(map[string]bool)
	for _, change := range changes {
		for _, node := range g.NodesByFile(change.Path) {
			if !spansChangedLine(node, change.ChangedLines) || seenDirect[node.ID] {
				continue
			}
			report.DirectlyAffected = append(report.DirectlyAffected, node)
			seenDirect[node.ID] = true
		}
	}

	// Dependents are anything pointing at a changed node, except the
	// structural CONTAINS edges: a parent containing a changed child is
	// already covered by the line overlap above.
	seenIndirect := make(map[string]bool)
	for _, node := range report.DirectlyAffected {
		deps := g.Neighbors(node.ID, graph.Incoming,
			graph.EdgeCalls, graph.EdgeReferences, graph.EdgeInherits, graph.EdgeImports)
		for _, dep := range deps {
			if seenDirect[dep.ID] || seenIndirect[dep.ID] {
				continue
			}
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			seenIndirect[dep.ID] = true
		}
	}

	return report
}

func spansChangedLine(node *graph.Node, lines []int) bool {
	for _, line := range lines {
		if line >= node.StartLine && line <= node.EndLine {
			return true
		}
	}
	return false
}
