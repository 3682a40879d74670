package graph

import (
	"sort"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/symbols"
	"gonum.org/v1/gonum/graph/simple"
)

// Hierarchy is the inheritance graph of a cache with an edge from every unit
// to each of its supertypes. Node ids are symbol values.
type Hierarchy struct {
	graph *simple.DirectedGraph
	// SelfLoops lists units naming themselves as a supertype. A simple graph
	// cannot hold them, so they are kept aside.
	SelfLoops []symbols.Symbol
}

// NewHierarchy creates an empty hierarchy graph
func NewHierarchy() *Hierarchy {
	return &Hierarchy{graph: simple.NewDirectedGraph()}
}

// AddUnit adds a unit to the graph
func (h *Hierarchy) AddUnit(id symbols.Symbol) {
	if h.graph.Node(int64(id)) == nil {
		h.graph.AddNode(simple.Node(int64(id)))
	}
}

// AddSupertype adds an edge from sub to super
func (h *Hierarchy) AddSupertype(sub, super symbols.Symbol) {
	if sub == super {
		h.SelfLoops = append(h.SelfLoops, sub)
		return
	}
	h.AddUnit(sub)
	h.AddUnit(super)
	if !h.graph.HasEdgeFromTo(int64(sub), int64(super)) {
		h.graph.SetEdge(h.graph.NewEdge(h.graph.Node(int64(sub)), h.graph.Node(int64(super))))
	}
}

// Graph returns the underlying directed graph
func (h *Hierarchy) Graph() *simple.DirectedGraph {
	return h.graph
}

// Supertypes returns the direct supertypes of id recorded in the graph
func (h *Hierarchy) Supertypes(id symbols.Symbol) []symbols.Symbol {
	if h.graph.Node(int64(id)) == nil {
		return nil
	}
	var supers []symbols.Symbol
	iter := h.graph.From(int64(id))
	for iter.Next() {
		supers = append(supers, symbols.Symbol(iter.Node().ID()))
	}
	sort.Slice(supers, func(i, j int) bool { return supers[i] < supers[j] })
	return supers
}

// BuildHierarchy builds the inheritance graph of every unit in c
func BuildHierarchy(c *cache.Cache) *Hierarchy {
	h := NewHierarchy()
	for _, id := range c.Units() {
		u, err := c.Unit(id)
		if err != nil {
			continue
		}
		h.AddUnit(id)
		if u.Super.Valid() {
			h.AddSupertype(id, u.Super)
		}
		for _, iface := range u.Interfaces {
			h.AddSupertype(id, iface)
		}
	}
	return h
}
