package graph

import (
	"errors"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Visitor is called once per unit reached by a walk. Returning false prunes
// the walk below that unit; an error aborts the walk and is returned as is.
type Visitor func(id symbols.Symbol) (bool, error)

// Navigator walks the inheritance graph as seen through a resolver:
// supertypes come from the freshest record of each unit, subclasses from the
// union of both caches.
type Navigator struct {
	resolver *cache.Resolver
}

// NewNavigator creates a navigator over r
func NewNavigator(r *cache.Resolver) *Navigator {
	return &Navigator{resolver: r}
}

// visited belongs to exactly one walk and is never shared across walks.
type visited map[symbols.Symbol]bool

// WalkSuperclasses visits the superclass and superinterfaces of id, then
// theirs, transitively. id itself is not visited.
func (n *Navigator) WalkSuperclasses(id symbols.Symbol, visit Visitor) error {
	return n.walkUp(id, visited{id: true}, visit, false)
}

// WalkSuperInterfaces is WalkSuperclasses restricted to interfaces
func (n *Navigator) WalkSuperInterfaces(id symbols.Symbol, visit Visitor) error {
	return n.walkUp(id, visited{id: true}, visit, true)
}

func (n *Navigator) walkUp(id symbols.Symbol, seen visited, visit Visitor, interfacesOnly bool) error {
	super, interfaces, err := n.resolver.Supertypes(id)
	if errors.Is(err, cache.ErrUnitUnknown) {
		return nil
	}
	if err != nil {
		return err
	}

	next := interfaces
	if !interfacesOnly && super.Valid() {
		next = append([]symbols.Symbol{super}, interfaces...)
	}
	for _, s := range next {
		if seen[s] {
			continue
		}
		seen[s] = true
		cont, err := visit(s)
		if err != nil {
			return err
		}
		if !cont {
			continue
		}
		if err := n.walkUp(s, seen, visit, interfacesOnly); err != nil {
			return err
		}
	}
	return nil
}

// WalkSubclasses visits the direct subclasses of id, then theirs,
// transitively. id itself is not visited.
func (n *Navigator) WalkSubclasses(id symbols.Symbol, visit Visitor) error {
	return n.walkDown(id, visited{id: true}, visit)
}

func (n *Navigator) walkDown(id symbols.Symbol, seen visited, visit Visitor) error {
	subs, err := n.resolver.Subclasses(id)
	if errors.Is(err, cache.ErrUnitUnknown) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, s := range subs {
		if seen[s] {
			continue
		}
		seen[s] = true
		cont, err := visit(s)
		if err != nil {
			return err
		}
		if !cont {
			continue
		}
		if err := n.walkDown(s, seen, visit); err != nil {
			return err
		}
	}
	return nil
}

// DirectSubclasses returns the direct subclasses of id; an unknown unit has none
func (n *Navigator) DirectSubclasses(id symbols.Symbol) ([]symbols.Symbol, error) {
	subs, err := n.resolver.Subclasses(id)
	if errors.Is(err, cache.ErrUnitUnknown) {
		return nil, nil
	}
	return subs, err
}
