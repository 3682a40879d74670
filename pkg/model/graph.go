package model

import "sort"

// Node types, in precedence order when a unit qualifies for several
const (
	NodeChanged  = "changed"  // recompiled, diffed this round
	NodeDeferred = "deferred" // marked, no fresh facts yet
	NodeMarked   = "marked"   // needs recompilation
)

// Graph is the export view of a propagation round. Nodes are units keyed by
// name; each edge runs from the unit whose change caused a mark to the
// marked unit, so a unit marked by several causes has several in-edges.
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

type Node struct {
	ID       string                 `json:"id"`
	Label    string                 `json:"label"`
	Type     string                 `json:"type"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type Edge struct {
	Source   string                 `json:"source"`
	Target   string                 `json:"target"`
	Type     string                 `json:"type"` // rule that produced the mark
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]*Node), Edges: []*Edge{}}
}

// AddNode inserts node, replacing any node with the same id
func (g *Graph) AddNode(node *Node) {
	if node.Metadata == nil {
		node.Metadata = make(map[string]interface{})
	}
	g.Nodes[node.ID] = node
}

// AddUnit inserts a unit node unless one already exists. It reports whether
// the node was added, which lets callers apply type precedence by insertion
// order.
func (g *Graph) AddUnit(name, nodeType string) bool {
	if g.HasNode(name) {
		return false
	}
	g.AddNode(&Node{ID: name, Label: name, Type: nodeType})
	return true
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

func (g *Graph) AddEdge(edge *Edge) {
	if edge.Metadata == nil {
		edge.Metadata = make(map[string]interface{})
	}
	g.Edges = append(g.Edges, edge)
}

// SortedNodes returns the nodes ordered by id
func (g *Graph) SortedNodes() []*Node {
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Neighbors maps each node to the nodes it shares an edge with, ignoring
// direction
func (g *Graph) Neighbors() map[string][]string {
	adjacency := make(map[string][]string)
	for _, e := range g.Edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		adjacency[e.Target] = append(adjacency[e.Target], e.Source)
	}
	return adjacency
}

// CountByType counts nodes per node type
func (g *Graph) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, n := range g.Nodes {
		counts[n.Type]++
	}
	return counts
}
