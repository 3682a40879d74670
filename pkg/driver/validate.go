package driver

import (
	"strings"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/cycles"
	"github.com/ritzau/classdeps/pkg/graph"
)

// Validate reports supertype cycles in c. Cycles only come from corrupted
// metadata; walks still terminate on them, so they are logged, not fatal.
func Validate(c *cache.Cache) []cycles.HierarchyCycle {
	found := cycles.FindHierarchyCycles(graph.BuildHierarchy(c))
	for _, cycle := range found {
		log.Warn("supertype cycle", "units", strings.Join(cycle.Names(c.Table()), " -> "))
	}
	if len(found) == 0 {
		log.Debug("hierarchy validated", "units", c.Len())
	}
	return found
}
