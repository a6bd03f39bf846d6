package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"codegraph/internal/codeerr"
	"codegraph/internal/graph"
)

func readSource(path string) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, codeerr.Resourcef(path, "file not found")
		}
		return nil, codeerr.Resourcef(path, "read failed: %v", err)
	}
	return source, nil
}

// RenderGraph serializes the graph export as indented JSON. When
// includeExternal is false, placeholder nodes and their edges are dropped.
func RenderGraph(g *graph.Graph, includeExternal bool) (string, error) {
	export := g.ToExport()

	if !includeExternal {
		external := make(map[string]bool)
		kept := export.Nodes[:0]
		for _, n := range export.Nodes {
			if n.External() {
				external[n.ID] = true
				continue
			}
			kept = append(kept, n)
		}
		export.Nodes = kept

		keptEdges := export.Edges[:0]
		for _, e := range export.Edges {
			if external[e.SourceID] || external[e.TargetID] {
				continue
			}
			keptEdges = append(keptEdges, e)
		}
		export.Edges = keptEdges
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RenderMap renders a compact text map of the codebase: one section per
// file, definitions indented under their containers.
func RenderMap(g *graph.Graph) string {
	byFile := make(map[string][]*graph.Node)
	for _, n := range g.Nodes() {
		if n.External() || n.FilePath == "" {
			continue
		}
		byFile[n.FilePath] = append(byFile[n.FilePath], n)
	}

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, path := range paths {
		nodes := byFile[path]
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].StartLine != nodes[j].StartLine {
				return nodes[i].StartLine < nodes[j].StartLine
			}
			return nodes[i].ID < nodes[j].ID
		})

		fmt.Fprintf(&b, "%s\n", path)
		for _, n := range nodes {
			switch n.Type {
			case graph.NodeClass:
				fmt.Fprintf(&b, "  class %s (line %d)\n", n.Name, n.StartLine)
			case graph.NodeFunction:
				fmt.Fprintf(&b, "  def %s (line %d)\n", n.Name, n.StartLine)
			case graph.NodeMethod:
				fmt.Fprintf(&b, "    def %s (line %d)\n", n.Name, n.StartLine)
			case graph.NodeImport:
				fmt.Fprintf(&b, "  import %s (line %d)\n", n.Name, n.StartLine)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
