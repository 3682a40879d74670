package analysis

import (
	"fmt"
	"sort"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/snapshot"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// UnitView is the current facts of a unit with its hierarchy neighbours
type UnitView struct {
	Unit       snapshot.UnitDoc `json:"unit"`
	Recompiled bool             `json:"recompiled"` // facts come from the new snapshot
	Subclasses []string         `json:"subclasses"`
}

// Unit describes the freshest facts known about name
func (r *Runner) Unit(name string) (*UnitView, error) {
	table, resolver, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	id, ok := table.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cache.ErrUnitUnknown, name)
	}
	u, err := resolver.Current(id)
	if err != nil {
		return nil, err
	}
	subs, err := resolver.Subclasses(id)
	if err != nil {
		return nil, err
	}

	view := &UnitView{
		Unit:       snapshot.Describe(u, table),
		Recompiled: resolver.Recompiled(id),
		Subclasses: make([]string, len(subs)),
	}
	for i, s := range subs {
		view.Subclasses[i] = table.Name(s)
	}
	sort.Strings(view.Subclasses)
	return view, nil
}

// Dependents lists the units whose compiled form references name, with the
// members they use
func (r *Runner) Dependents(name string) ([]snapshot.UseDoc, error) {
	table, resolver, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	id, ok := table.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cache.ErrUnitUnknown, name)
	}
	deps, err := resolver.BackDependencies(id)
	if err != nil {
		return nil, err
	}
	uses := snapshot.DescribeDependents(deps, table)
	sort.Slice(uses, func(i, j int) bool { return uses[i].Unit < uses[j].Unit })
	return uses, nil
}

func (r *Runner) snapshot() (*symbols.Table, *cache.Resolver, error) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	if r.newCache == nil {
		return nil, nil, ErrNotLoaded
	}
	return r.table, cache.NewResolver(r.newCache, r.oldCache), nil
}
