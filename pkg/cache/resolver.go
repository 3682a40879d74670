package cache

import (
	"errors"
	"fmt"

	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Resolver gives the current best known view over the two caches of a round:
// New holds the facts of units recompiled this round, Old the complete prior
// state. Lookups try New first and fall back to Old.
type Resolver struct {
	New *Cache
	Old *Cache
}

// NewResolver pairs the new and old caches of a round
func NewResolver(newCache, oldCache *Cache) *Resolver {
	return &Resolver{New: newCache, Old: oldCache}
}

// Table returns the symbol table shared by both caches
func (r *Resolver) Table() *symbols.Table {
	return r.Old.Table()
}

// Current returns the freshest record for id
func (r *Resolver) Current(id symbols.Symbol) (*model.Unit, error) {
	if u, err := r.New.Unit(id); err == nil {
		return u, nil
	}
	u, err := r.Old.Unit(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnitUnknown, r.Table().Name(id))
	}
	return u, nil
}

// Recompiled reports whether id has fresh facts in the new cache
func (r *Resolver) Recompiled(id symbols.Symbol) bool {
	return r.New.Contains(id)
}

// Known reports whether id is present in either cache
func (r *Resolver) Known(id symbols.Symbol) bool {
	return r.New.Contains(id) || r.Old.Contains(id)
}

// BackDependencies returns the dependents of id. The old cache is
// authoritative: dependency edges of a unit change only when its dependents
// are recompiled, and those are not merged until the pass is committed.
func (r *Resolver) BackDependencies(id symbols.Symbol) ([]*model.Dependency, error) {
	deps, err := r.Old.BackDependencies(id)
	if errors.Is(err, ErrUnitUnknown) && r.New.Contains(id) {
		return r.New.BackDependencies(id)
	}
	return deps, err
}

// Subclasses returns the union of the subclasses known to either cache, old
// order first
func (r *Resolver) Subclasses(id symbols.Symbol) ([]symbols.Symbol, error) {
	oldSubs, oldErr := r.Old.Subclasses(id)
	newSubs, newErr := r.New.Subclasses(id)
	if oldErr != nil && newErr != nil {
		return nil, oldErr
	}
	if len(newSubs) == 0 {
		return oldSubs, nil
	}
	seen := make(map[symbols.Symbol]bool, len(oldSubs)+len(newSubs))
	subs := make([]symbols.Symbol, 0, len(oldSubs)+len(newSubs))
	for _, list := range [][]symbols.Symbol{oldSubs, newSubs} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				subs = append(subs, s)
			}
		}
	}
	return subs, nil
}

// Members returns the current members of id
func (r *Resolver) Members(id symbols.Symbol) ([]model.Member, error) {
	u, err := r.Current(id)
	if err != nil {
		return nil, err
	}
	return u.Members(), nil
}

// Supertypes returns the current superclass (None if absent) and interfaces of id
func (r *Resolver) Supertypes(id symbols.Symbol) (symbols.Symbol, []symbols.Symbol, error) {
	u, err := r.Current(id)
	if err != nil {
		return symbols.None, nil, err
	}
	return u.Super, u.Interfaces, nil
}
