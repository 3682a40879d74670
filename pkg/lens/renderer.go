package lens

import (
	"github.com/ritzau/classdeps/pkg/model"
)

// Apply returns the part of graph selected by l. Kept nodes carry their
// distance from the focus in Metadata["distance"]. The input is not
// modified.
func (l *Lens) Apply(graph *model.Graph) *model.Graph {
	filtered := filterEdges(graph, l.Rules)

	var distances map[string]int
	if len(l.Focus) > 0 {
		distances = ComputeDistances(filtered, l.Focus)
	}

	result := model.NewGraph()
	for id, node := range filtered.Nodes {
		if l.HideDeferred && node.Type == model.NodeDeferred {
			continue
		}
		metadata := make(map[string]interface{}, len(node.Metadata)+1)
		for k, v := range node.Metadata {
			metadata[k] = v
		}
		if distances != nil {
			d, reached := distances[id]
			if !reached || (l.MaxDistance >= 0 && d > l.MaxDistance) {
				continue
			}
			metadata["distance"] = d
		}
		result.AddNode(&model.Node{ID: node.ID, Label: node.Label, Type: node.Type, Metadata: metadata})
	}

	for _, edge := range filtered.Edges {
		if result.HasNode(edge.Source) && result.HasNode(edge.Target) {
			result.AddEdge(edge)
		}
	}
	return result
}

// filterEdges keeps every node and the edges produced by rules
func filterEdges(graph *model.Graph, rules []string) *model.Graph {
	if len(rules) == 0 {
		return graph
	}
	keep := make(map[string]bool, len(rules))
	for _, r := range rules {
		keep[r] = true
	}
	filtered := &model.Graph{Nodes: graph.Nodes}
	for _, edge := range graph.Edges {
		if keep[edge.Type] {
			filtered.Edges = append(filtered.Edges, edge)
		}
	}
	return filtered
}
