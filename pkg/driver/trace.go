package driver

import (
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Graph converts the round into a node/edge graph. Edges run from the
// unit whose change caused a mark to the marked unit.
func (r *Result) Graph(table *symbols.Table) *model.Graph {
	g := model.NewGraph()

	addNodes := func(units []symbols.Symbol, nodeType string) {
		for _, id := range units {
			g.AddUnit(table.Name(id), nodeType)
		}
	}
	// Precedence: changed, then deferred, then marked
	addNodes(r.Changed, model.NodeChanged)
	addNodes(r.Diffed, model.NodeChanged)
	addNodes(r.Deferred, model.NodeDeferred)
	addNodes(r.Marked, model.NodeMarked)

	for _, m := range r.Trace {
		cause := table.Name(m.Cause)
		g.AddUnit(cause, model.NodeChanged)
		g.AddEdge(&model.Edge{
			Source:   cause,
			Target:   table.Name(m.Unit),
			Type:     m.Rule,
			Metadata: map[string]interface{}{"reason": m.Reason},
		})
	}
	return g
}

// Names renders units with table
func Names(table *symbols.Table, units []symbols.Symbol) []string {
	names := make([]string, len(units))
	for i, id := range units {
		names[i] = table.Name(id)
	}
	return names
}
