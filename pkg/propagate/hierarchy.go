package propagate

import (
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// applyFieldCollision marks units that reference a field with the name of
// an added or removed field anywhere the field can shadow or unshadow it:
// in the superclasses of the unit and, when an interface gains fields, in
// the whole hierarchy of its implementors.
func applyFieldCollision(s *state) error {
	names := make(map[symbols.Symbol]bool)
	for _, f := range s.diff.AddedFields() {
		names[f.Name] = true
	}
	addedCount := len(names)
	for _, f := range s.diff.RemovedFields() {
		names[f.Name] = true
	}

	nav := s.engine.nav
	err := nav.WalkSuperclasses(s.id, func(super symbols.Symbol) (bool, error) {
		return true, s.markFieldUsers(super, names)
	})
	if err != nil {
		return err
	}

	if addedCount == 0 || !s.diff.Old.IsInterface() {
		return nil
	}
	visited := map[symbols.Symbol]bool{s.id: true}
	return nav.WalkSubclasses(s.id, func(sub symbols.Symbol) (bool, error) {
		if err := s.markFieldUsers(sub, names); err != nil {
			return false, err
		}
		visited[sub] = true
		err := nav.WalkSuperclasses(sub, func(super symbols.Symbol) (bool, error) {
			if visited[super] {
				return false, nil
			}
			if err := s.markFieldUsers(super, names); err != nil {
				return false, err
			}
			visited[super] = true
			return true, nil
		})
		return err == nil, err
	})
}

// markFieldUsers marks the unmarked dependents of id that reference one of
// its fields by one of names
func (s *state) markFieldUsers(id symbols.Symbol, names map[symbols.Symbol]bool) error {
	deps, err := s.backDependencies(id)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if s.isMarked(dep.Dependent) {
			continue
		}
		for _, ref := range dep.FieldRefs() {
			if names[ref.Name] {
				s.markDependent(dep, "conflicting fields changed in the hierarchy of "+s.name(id))
				break
			}
		}
	}
	return nil
}

// applyHierarchyOverloads marks dependents of superclasses and subclasses of
// the unit that call a method equivalent to an added or removed one
func applyHierarchyOverloads(s *state) error {
	methods := s.methodsToCheck()
	visit := func(id symbols.Symbol) (bool, error) {
		return true, s.markEquivalentUsers(id, methods)
	}
	if err := s.engine.nav.WalkSuperclasses(s.id, visit); err != nil {
		return err
	}
	return s.engine.nav.WalkSubclasses(s.id, visit)
}

func (s *state) markEquivalentUsers(id symbols.Symbol, methods []*model.Method) error {
	deps, err := s.backDependencies(id)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if s.isMarked(dep.Dependent) {
			continue
		}
		equivalent, err := s.dependsOnEquivalentMethods(dep.MethodRefs(), methods)
		if err != nil {
			return err
		}
		if equivalent {
			s.markDependent(dep, "more specific methods changed in "+s.name(s.id))
		}
	}
	return nil
}
