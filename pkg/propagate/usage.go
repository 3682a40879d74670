package propagate

import (
	"fmt"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/logging"
	"github.com/ritzau/classdeps/pkg/model"
)

// applyMemberUsage checks every unmarked dependent against the member level
// changes of the unit
func applyMemberUsage(s *state) error {
	deps, err := s.ownBackDependencies()
	if err != nil {
		return err
	}
	d := s.diff
	removedMethods := d.RemovedMethods(true)
	addedMethods := d.AddedMethods(true)

	for _, dep := range deps {
		if s.isMarked(dep.Dependent) {
			continue
		}

		if d.AccessRestricted {
			s.markDependent(dep, s.name(s.id)+" made less accessible")
			continue
		}
		if d.BecameAbstract && s.usesConstructor(dep) {
			s.markDependent(dep, s.name(s.id)+" made abstract")
			continue
		}
		if s.usesRemovedMember(dep) {
			s.markDependent(dep, "uses removed members of "+s.name(s.id))
			continue
		}
		if s.usesChangedMember(dep) {
			s.markDependent(dep, "uses changed members of "+s.name(s.id))
			continue
		}

		refs := dep.MethodRefs()
		equivalent, err := s.dependsOnEquivalentMethods(refs, removedMethods)
		if err != nil {
			return err
		}
		if equivalent {
			s.markDependent(dep, "overloaded methods of "+s.name(s.id)+" were removed")
			continue
		}
		equivalent, err = s.dependsOnEquivalentMethods(refs, addedMethods)
		if err != nil {
			return err
		}
		if equivalent {
			s.markDependent(dep, "overloaded methods of "+s.name(s.id)+" were added")
		}
	}
	return nil
}

// usesConstructor reports whether dep calls a constructor of the unit
func (s *state) usesConstructor(dep *model.Dependency) bool {
	for _, ref := range dep.MethodRefs() {
		if m, ok := s.diff.Old.Resolve(ref).(*model.Method); ok && m.Constructor {
			return true
		}
	}
	return false
}

func (s *state) usesRemovedMember(dep *model.Dependency) bool {
	for _, ref := range dep.Refs {
		if m := s.diff.Old.Resolve(ref); m != nil && s.diff.IsRemoved(m.Key()) {
			return true
		}
	}
	return false
}

// usesChangedMember reports whether dep references a member whose change
// breaks its callers: any field change, or a method change to the return
// type, generic signatures, throws list, static-ness or access
func (s *state) usesChangedMember(dep *model.Dependency) bool {
	for _, ref := range dep.Refs {
		m := s.diff.Old.Resolve(ref)
		if m == nil {
			continue
		}
		if c, ok := s.diff.ChangeOf(m.Key()); ok && c.Change.SourceIncompatible() {
			return true
		}
	}
	return false
}

// dependsOnEquivalentMethods reports whether any referenced method has an
// equivalent in methods: same name and arity with at least one differing
// parameter type.
func (s *state) dependsOnEquivalentMethods(refs []model.MemberRef, methods []*model.Method) (bool, error) {
	if len(refs) == 0 || len(methods) == 0 {
		return false, nil
	}
	for _, ref := range refs {
		found, err := s.hasEquivalentMethod(methods, ref)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (s *state) hasEquivalentMethod(methods []*model.Method, ref model.MemberRef) (bool, error) {
	params, err := s.engine.sigs.Params(ref.Descriptor)
	if err != nil {
		return false, fmt.Errorf("%w: %v", cache.ErrCorruptedMetadata, err)
	}
	for _, m := range methods {
		if m.Name != ref.Name || len(m.Params) != len(params) {
			continue
		}
		for i, p := range m.Params {
			if s.table.Name(p) != params[i] {
				if log.Enabled(logging.LevelTrace) {
					log.Trace("equivalent methods", "ref", s.name(ref.Descriptor), "method", s.name(m.Descriptor))
				}
				return true, nil
			}
		}
	}
	return false, nil
}
