package propagate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/diff"
	"github.com/ritzau/classdeps/pkg/graph"
	"github.com/ritzau/classdeps/pkg/logging"
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

var log = logging.New("propagate")

// Marker records units that need recompilation. Mark reports whether id
// was newly marked; marks are never removed.
type Marker interface {
	Mark(id symbols.Symbol) bool
	IsMarked(id symbols.Symbol) bool
}

// Mark is a marking event: Unit was marked because Cause changed
type Mark struct {
	Unit   symbols.Symbol `json:"unit"`
	Cause  symbols.Symbol `json:"cause"`
	Rule   string         `json:"rule"`
	Reason string         `json:"reason"`
}

// Engine applies the propagation rules to unit diffs
type Engine struct {
	resolver *cache.Resolver
	nav      *graph.Navigator
	sigs     *symbols.Signatures
	rules    []Rule
}

// NewEngine creates a rule engine over the caches of a round. sigs must be
// built on the caches' symbol table.
func NewEngine(r *cache.Resolver, sigs *symbols.Signatures) *Engine {
	return &Engine{
		resolver: r,
		nav:      graph.NewNavigator(r),
		sigs:     sigs,
		rules:    defaultRules(),
	}
}

// Rules returns the rules in evaluation order
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Propagate marks the units affected by d and returns the marks it made.
// Rules run in order; the first matching terminal rule ends evaluation.
// An ErrCorruptedMetadata error means the marks made so far must not be used.
func (e *Engine) Propagate(d *diff.UnitDiff, marker Marker) ([]Mark, error) {
	s := &state{
		engine: e,
		diff:   d,
		id:     d.Unit,
		marker: marker,
		table:  e.resolver.Table(),
	}
	for _, rule := range e.rules {
		if !rule.When(s) {
			continue
		}
		if log.Enabled(logging.LevelTrace) {
			log.Trace("rule matched", "unit", s.name(s.id), "rule", rule.Name)
		}
		s.rule = rule.Name
		if err := rule.Apply(s); err != nil {
			return s.marks, fmt.Errorf("rule %s on %s: %w", rule.Name, s.name(s.id), err)
		}
		if rule.Terminal {
			break
		}
	}
	return s.marks, nil
}

// state is the evaluation state of one Propagate call
type state struct {
	engine *Engine
	diff   *diff.UnitDiff
	id     symbols.Symbol
	marker Marker
	table  *symbols.Table
	rule   string
	marks  []Mark

	backDeps []*model.Dependency
	loaded   bool
}

func (s *state) name(id symbols.Symbol) string {
	return s.table.Name(id)
}

// ownBackDependencies returns the dependents of the unit being propagated
func (s *state) ownBackDependencies() ([]*model.Dependency, error) {
	if !s.loaded {
		deps, err := s.backDependencies(s.id)
		if err != nil {
			return nil, err
		}
		s.backDeps, s.loaded = deps, true
	}
	return s.backDeps, nil
}

// backDependencies returns the validated dependents of id. A unit unknown to
// both caches has none.
func (s *state) backDependencies(id symbols.Symbol) ([]*model.Dependency, error) {
	deps, err := s.engine.resolver.BackDependencies(id)
	if errors.Is(err, cache.ErrUnitUnknown) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, dep := range deps {
		if dep.Target != id {
			return nil, fmt.Errorf("%w: dependency of %s filed under %s", cache.ErrCorruptedMetadata, s.name(dep.Target), s.name(id))
		}
		if !s.engine.resolver.Known(dep.Dependent) {
			return nil, fmt.Errorf("%w: %s depends on %s but is not cached", cache.ErrCorruptedMetadata, s.name(dep.Dependent), s.name(id))
		}
	}
	return deps, nil
}

func (s *state) markUnit(id symbols.Symbol, reason string) {
	if !s.marker.Mark(id) {
		return
	}
	m := Mark{Unit: id, Cause: s.id, Rule: s.rule, Reason: reason}
	s.marks = append(s.marks, m)
	if log.Enabled(slog.LevelDebug) {
		log.Debug("marked unit", "unit", s.name(id), "cause", s.name(s.id), "rule", s.rule, "reason", reason)
	}
}

func (s *state) markDependent(dep *model.Dependency, reason string) {
	s.markUnit(dep.Dependent, reason)
}

func (s *state) markAll(deps []*model.Dependency, reason string) {
	for _, dep := range deps {
		s.markDependent(dep, reason)
	}
}

func (s *state) isMarked(id symbols.Symbol) bool {
	return s.marker.IsMarked(id)
}

// markAllWithSubclasses marks the dependents of the unit and of every
// transitive subclass
func (s *state) markAllWithSubclasses(reason string) error {
	deps, err := s.ownBackDependencies()
	if err != nil {
		return err
	}
	s.markAll(deps, reason)
	return s.engine.nav.WalkSubclasses(s.id, func(sub symbols.Symbol) (bool, error) {
		subDeps, err := s.backDependencies(sub)
		if err != nil {
			return false, err
		}
		s.markAll(subDeps, reason)
		return true, nil
	})
}
