package propagate

import (
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Rule is one row of the propagation decision table
type Rule struct {
	Name string
	// When decides whether the rule applies to the diff
	When func(s *state) bool
	// Apply marks affected units
	Apply func(s *state) error
	// Terminal rules end evaluation once applied
	Terminal bool
}

// Rule names, in evaluation order
const (
	RuleUnchanged           = "unchanged"
	RuleAnnotationSemantics = "annotation-semantics"
	RuleAnnotationAdded     = "annotation-member-added"
	RuleAnnotationRemoved   = "annotation-member-removed"
	RuleAnnotationChanged   = "annotation-member-changed"
	RuleAnnotationDefault   = "annotation-default-removed"
	RuleAnnotationTargets   = "annotation-targets-removed"
	RuleAnnotationRetention = "annotation-retention-escalated"
	RuleSuperlistChanged    = "superlist-changed"
	RuleKindChanged         = "kind-changed"
	RuleBecameFinal         = "became-final"
	RuleMemberUsage         = "member-usage"
	RuleInheritance         = "inheritance"
	RuleFieldCollision      = "field-collision"
	RuleHierarchyOverloads  = "hierarchy-overloads"
)

func defaultRules() []Rule {
	return []Rule{
		{
			Name:     RuleUnchanged,
			When:     func(s *state) bool { return s.diff.Empty() },
			Apply:    func(*state) error { return nil },
			Terminal: true,
		},

		// Annotations are used exhaustively by every site that applies them,
		// so an incompatible change invalidates all of them.
		{
			Name: RuleAnnotationSemantics,
			When: func(s *state) bool {
				return s.isAnnotation() && s.diff.AnnotationSemanticsChanged
			},
			Apply:    markAnnotationCascade,
			Terminal: true,
		},
		annotationRule(RuleAnnotationAdded, "added annotation member without default",
			func(s *state) bool { return s.diff.AddedWithoutDefault() }),
		annotationRule(RuleAnnotationRemoved, "removed annotation member",
			func(s *state) bool { return len(s.diff.Removed) > 0 }),
		annotationRule(RuleAnnotationChanged, "changed annotation member type",
			func(s *state) bool { return len(s.diff.Changed) > 0 }),
		annotationRule(RuleAnnotationDefault, "removed annotation member default",
			func(s *state) bool { return s.diff.AnnotationDefaultsRemoved() }),
		annotationRule(RuleAnnotationTargets, "removed annotation targets",
			func(s *state) bool { return s.diff.TargetsRemoved }),
		annotationRule(RuleAnnotationRetention, "escalated retention policy",
			func(s *state) bool { return s.diff.RetentionEscalated }),

		{
			Name: RuleSuperlistChanged,
			When: func(s *state) bool {
				return s.diff.SuperClassChanged || s.diff.InterfaceRemoved || s.diff.SuperlistSignatureChanged
			},
			Apply: func(s *state) error {
				return s.markAllWithSubclasses("removed from the superlist or changed superlist signature of " + s.name(s.id))
			},
			Terminal: true,
		},
		{
			Name: RuleKindChanged,
			When: func(s *state) bool { return s.diff.KindChanged },
			Apply: func(s *state) error {
				return s.markAllWithSubclasses("class/interface kind changed for " + s.name(s.id))
			},
			Terminal: true,
		},
		{
			Name: RuleBecameFinal,
			When: func(s *state) bool { return s.diff.BecameFinal },
			Apply: func(s *state) error {
				deps, err := s.ownBackDependencies()
				if err != nil {
					return err
				}
				s.markAll(deps, s.name(s.id)+" became final")
				return nil
			},
		},
		{
			Name:  RuleMemberUsage,
			When:  func(s *state) bool { return !s.diff.BecameFinal },
			Apply: applyMemberUsage,
		},
		{
			Name:  RuleInheritance,
			When:  func(*state) bool { return true },
			Apply: applyInheritance,
		},
		{
			Name: RuleFieldCollision,
			When: func(s *state) bool {
				return !s.anonymous() && (len(s.diff.AddedFields()) > 0 || len(s.diff.RemovedFields()) > 0)
			},
			Apply: applyFieldCollision,
		},
		{
			Name: RuleHierarchyOverloads,
			When: func(s *state) bool {
				return !s.anonymous() && len(s.methodsToCheck()) > 0
			},
			Apply: applyHierarchyOverloads,
		},
	}
}

func annotationRule(name, reason string, when func(s *state) bool) Rule {
	return Rule{
		Name: name,
		When: func(s *state) bool { return s.isAnnotation() && when(s) },
		Apply: func(s *state) error {
			deps, err := s.ownBackDependencies()
			if err != nil {
				return err
			}
			s.markAll(deps, reason+" in "+s.name(s.id))
			return nil
		},
		Terminal: true,
	}
}

func (s *state) isAnnotation() bool {
	return s.diff.Old.IsAnnotation()
}

func (s *state) anonymous() bool {
	return model.IsAnonymousName(s.name(s.id))
}

// methodsToCheck returns removed then added methods, constructors excluded
func (s *state) methodsToCheck() []*model.Method {
	methods := s.diff.RemovedMethods(false)
	return append(methods, s.diff.AddedMethods(false)...)
}

// markAnnotationCascade marks every dependent of the annotation type and,
// for dependents that are annotation types themselves, their dependents in
// turn
func markAnnotationCascade(s *state) error {
	deps, err := s.ownBackDependencies()
	if err != nil {
		return err
	}
	visited := map[symbols.Symbol]bool{s.id: true}
	return s.cascade(deps, "semantics changed for "+s.name(s.id), visited)
}

func (s *state) cascade(deps []*model.Dependency, reason string, visited map[symbols.Symbol]bool) error {
	for _, dep := range deps {
		s.markDependent(dep, reason)

		u, err := s.engine.resolver.Old.Unit(dep.Dependent)
		if err != nil || !u.IsAnnotation() || visited[dep.Dependent] {
			continue
		}
		visited[dep.Dependent] = true
		next, err := s.backDependencies(dep.Dependent)
		if err != nil {
			return err
		}
		if err := s.cascade(next, "cascaded semantics change of "+s.name(dep.Dependent), visited); err != nil {
			return err
		}
	}
	return nil
}
