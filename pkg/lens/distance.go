package lens

import (
	"strings"

	"github.com/ritzau/classdeps/pkg/model"
)

type distanceQueueNode struct {
	nodeID   string
	distance int
}

// expandPackages replaces selected package names with the units they contain
// e.g., "com.acme" -> ["com.acme.Engine", "com.acme.Handler"]
func expandPackages(selected []string, graph *model.Graph) []string {
	var result []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}

	for _, sel := range selected {
		if graph.HasNode(sel) {
			add(sel)
			continue
		}
		prefix := sel + "."
		for id := range graph.Nodes {
			// Direct members only: "com.acme" does not select "com.acme.sub.X"
			if strings.HasPrefix(id, prefix) && !strings.Contains(id[len(prefix):], ".") {
				add(id)
			}
		}
	}
	return result
}

// ComputeDistances calculates the shortest distance from each node to the
// nearest selected node, treating edges as undirected. Unreached nodes are
// absent from the result.
func ComputeDistances(graph *model.Graph, selected []string) map[string]int {
	distances := make(map[string]int)
	adjacency := graph.Neighbors()

	queue := []distanceQueueNode{}
	for _, id := range expandPackages(selected, graph) {
		distances[id] = 0
		queue = append(queue, distanceQueueNode{nodeID: id, distance: 0})
	}

	// BFS traversal
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range adjacency[current.nodeID] {
			if _, exists := distances[neighbor]; !exists {
				distances[neighbor] = current.distance + 1
				queue = append(queue, distanceQueueNode{nodeID: neighbor, distance: current.distance + 1})
			}
		}
	}
	return distances
}
