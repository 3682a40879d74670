package cycles

import (
	"sort"

	"github.com/ritzau/classdeps/pkg/graph"
	"github.com/ritzau/classdeps/pkg/symbols"
	"gonum.org/v1/gonum/graph/topo"
)

// HierarchyCycle is a set of units that inherit from each other. A valid
// build never produces one; it indicates corrupted metadata.
type HierarchyCycle struct {
	Units []symbols.Symbol // sorted by symbol id
}

// FindHierarchyCycles returns every strongly connected component of the
// inheritance graph with more than one unit, plus units that are their own
// supertype.
func FindHierarchyCycles(h *graph.Hierarchy) []HierarchyCycle {
	cycles := make([]HierarchyCycle, 0)

	for _, id := range h.SelfLoops {
		cycles = append(cycles, HierarchyCycle{Units: []symbols.Symbol{id}})
	}

	for _, scc := range topo.TarjanSCC(h.Graph()) {
		if len(scc) < 2 {
			continue
		}
		units := make([]symbols.Symbol, 0, len(scc))
		for _, node := range scc {
			units = append(units, symbols.Symbol(node.ID()))
		}
		sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
		cycles = append(cycles, HierarchyCycle{Units: units})
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Units[0] < cycles[j].Units[0] })
	return cycles
}

// Names renders the units of c through table
func (c HierarchyCycle) Names(table *symbols.Table) []string {
	names := make([]string, len(c.Units))
	for i, id := range c.Units {
		names[i] = table.Name(id)
	}
	return names
}
