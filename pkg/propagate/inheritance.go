package propagate

import (
	"errors"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// applyInheritance checks every transitive subclass not yet marked against
// the changes of the unit. Subclass facts come from the old cache: a
// subclass recompiled this round is diffed on its own.
func applyInheritance(s *state) error {
	d := s.diff
	removedMethods := d.RemovedMethods(false)

	var removedConcrete []*model.Method
	for _, m := range removedMethods {
		if !m.Flags.IsAbstract() {
			removedConcrete = append(removedConcrete, m)
		}
	}
	var removedOverridable []*model.Method
	for _, m := range removedMethods {
		if !m.Flags.IsFinal() && !m.Flags.IsStatic() && !m.Flags.IsPrivate() {
			removedOverridable = append(removedOverridable, m)
		}
	}
	remote := d.Old.IsInterface() && d.Old.Remote

	return s.engine.nav.WalkSubclasses(s.id, func(sub symbols.Symbol) (bool, error) {
		if s.isMarked(sub) {
			return true, nil
		}
		subUnit, err := s.engine.resolver.Old.Unit(sub)
		if errors.Is(err, cache.ErrUnitUnknown) {
			return true, nil
		}
		if err != nil {
			return false, err
		}

		if len(removedMethods) > 0 && remote && !subUnit.IsInterface() {
			s.markUnit(sub, "methods removed from remote interface "+s.name(s.id))
			return true, nil
		}
		if d.SuperClassAdded || d.InterfaceAdded {
			s.markUnit(sub, "the superlist of "+s.name(s.id)+" changed")
			return true, nil
		}
		if d.BecameFinal && subUnit.Super == s.id {
			s.markUnit(sub, s.name(s.id)+" was made final")
			return true, nil
		}

		if reason := s.addedMemberConflict(subUnit); reason != "" {
			s.markUnit(sub, reason)
			return true, nil
		}

		marked, err := s.changedMemberConflict(subUnit)
		if err != nil {
			return false, err
		}
		if marked {
			return true, nil
		}

		if !subUnit.IsAbstract() && len(removedConcrete) > 0 {
			pending := make(map[*model.Method]bool, len(removedConcrete))
			for _, m := range removedConcrete {
				pending[m] = true
			}
			if s.hasUnimplementedAbstractMethods(sub, pending, make(map[symbols.Symbol]bool)) {
				s.markUnit(sub, "abstract method implementation removed from "+s.name(s.id))
				return true, nil
			}
		}

		if len(removedOverridable) > 0 && !s.isMarked(sub) && !s.engine.resolver.Recompiled(sub) {
			for _, sm := range subUnit.Methods {
				if sm.Constructor {
					continue
				}
				for _, rm := range removedOverridable {
					if rm.Name == sm.Name {
						s.markUnit(sub, "overriding methods may lose their base in "+s.name(s.id))
						return true, nil
					}
				}
			}
		}
		return true, nil
	})
}

// addedMemberConflict returns why an added member of the unit conflicts
// with what subUnit declares, or "" if nothing does
func (s *state) addedMemberConflict(subUnit *model.Unit) string {
	for _, member := range s.diff.Added {
		switch m := member.(type) {
		case *model.Method:
			if m.Flags.IsAbstract() {
				return "added abstract method to " + s.name(s.id)
			}
			if m.Flags.IsPrivate() {
				continue
			}
			text := s.methodText(m)
			if derived := subUnit.MethodBySig(m.Sig()); derived != nil {
				switch {
				case m.Return != derived.Return:
					return "return types of " + text + " differ in base and derived class"
				case model.IsMoreAccessible(m.Flags, derived.Flags):
					return text + " is less accessible in the derived class"
				case !m.Flags.IsStatic() && derived.Flags.IsStatic():
					return text + " is static in the derived class but not in the base class"
				case m.Flags.IsFinal() && !derived.Flags.IsFinal():
					return text + " is final in the base class"
				case !model.SameThrows(m.Throws, derived.Throws):
					return "exception lists of " + text + " differ in base and derived class"
				}
			}
			if hasGenericsNameClash(m, subUnit) {
				return "method with the same erasure but a different generic signature as " + text
			}
		case *model.Field:
			if subUnit.FieldByName(m.Name) != nil {
				return "added field " + s.name(m.Name) + " to base class " + s.name(s.id)
			}
		}
	}
	return ""
}

// changedMemberConflict marks subUnit if it redeclares, or implements through
// one of its interfaces, a method of the unit that changed
func (s *state) changedMemberConflict(subUnit *model.Unit) (bool, error) {
	sub := subUnit.Name
	for _, c := range s.diff.Changed {
		oldMethod, ok := c.Old.(*model.Method)
		if !ok {
			continue
		}
		text := s.methodText(oldMethod)
		if c.Change.Method.BecameAbstract && !subUnit.IsAbstract() {
			s.markUnit(sub, "base method "+text+" became abstract")
			return true, nil
		}
		if subUnit.MethodBySig(oldMethod.Sig()) != nil {
			s.markUnit(sub, "changed base method "+text)
			return true, nil
		}

		found := false
		err := s.engine.nav.WalkSuperInterfaces(sub, func(iface symbols.Symbol) (bool, error) {
			if found {
				return false, nil
			}
			implementee, err := s.engine.resolver.Old.FindMethodBySignature(iface, oldMethod.Sig())
			if errors.Is(err, cache.ErrUnitUnknown) {
				return true, nil
			}
			if err != nil {
				return false, err
			}
			if implementee != nil {
				found = true
				s.markUnit(sub, "changed base method "+text+" implements a method inherited from "+s.name(iface))
			}
			return !found, nil
		})
		if err != nil {
			return false, err
		}
		if s.isMarked(sub) {
			return true, nil
		}
	}
	return false, nil
}

// hasGenericsNameClash reports two methods in one hierarchy with the same
// name and erasure but different generic signatures
func hasGenericsNameClash(base *model.Method, subUnit *model.Unit) bool {
	for _, m := range subUnit.MethodsByName(base.Name) {
		if m.Flags.IsBridge() {
			continue
		}
		if base.Descriptor == m.Descriptor && base.GenericSignature != m.GenericSignature {
			return true
		}
	}
	return false
}

// hasUnimplementedAbstractMethods walks up from id and reports whether one of
// the pending methods is found abstract before a concrete declaration.
// Methods found concrete are removed from pending. Units unknown to the old
// cache are assumed not to declare any of them.
func (s *state) hasUnimplementedAbstractMethods(id symbols.Symbol, pending map[*model.Method]bool, seen map[symbols.Symbol]bool) bool {
	if !id.Valid() || len(pending) == 0 || seen[id] || !s.engine.resolver.Old.Contains(id) {
		return false
	}
	seen[id] = true

	if s.hasBaseAbstractMethods(id, pending) {
		return true
	}
	if len(pending) == 0 {
		return false
	}

	u, err := s.engine.resolver.Old.Unit(id)
	if err != nil {
		return false
	}
	if s.hasUnimplementedAbstractMethods(u.Super, pending, seen) {
		return true
	}
	for _, iface := range u.Interfaces {
		if len(pending) == 0 {
			return false
		}
		if s.hasUnimplementedAbstractMethods(iface, pending, seen) {
			return true
		}
	}
	return false
}

// hasBaseAbstractMethods looks the pending methods up in the freshest record
// of id
func (s *state) hasBaseAbstractMethods(id symbols.Symbol, pending map[*model.Method]bool) bool {
	u, err := s.engine.resolver.Current(id)
	if err != nil {
		return false
	}
	for m := range pending {
		superMethod := u.MethodBySig(m.Sig())
		if superMethod == nil {
			continue
		}
		if superMethod.Flags.IsAbstract() {
			return true
		}
		delete(pending, m)
	}
	return false
}

func (s *state) methodText(m *model.Method) string {
	return symbols.MethodText(s.name(m.Name), s.name(m.Descriptor))
}
