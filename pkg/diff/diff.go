package diff

import (
	"fmt"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Names of meta annotations tracked separately from annotation semantics
const (
	RetentionAnnotation = "java.lang.annotation.Retention"
	TargetAnnotation    = "java.lang.annotation.Target"
)

// ChangedMember pairs the old and new record of a member with what changed
type ChangedMember struct {
	Old    model.Member
	New    model.Member
	Change ChangeDescription
}

// UnitDiff is what changed in one unit between the old and new cache.
// Member sets hold old records for removed and changed members and new
// records for added ones.
type UnitDiff struct {
	Unit symbols.Symbol
	Old  *model.Unit
	New  *model.Unit

	Added   []model.Member
	Removed []model.Member
	Changed []ChangedMember

	SuperClassChanged         bool // old superclass was not the root type
	SuperClassAdded           bool // old superclass was the root type
	InterfaceAdded            bool
	InterfaceRemoved          bool
	SuperlistSignatureChanged bool

	KindChanged      bool // class <-> interface
	BecameFinal      bool
	BecameAbstract   bool
	AccessRestricted bool

	// Annotation types only
	RetentionEscalated         bool
	TargetsRemoved             bool
	AnnotationSemanticsChanged bool

	removed map[model.MemberKey]bool
	changed map[model.MemberKey]int
}

// MembersChanged reports whether any member was added, removed or changed
func (d *UnitDiff) MembersChanged() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// SuperlistChanged reports any change to the superclass, interfaces or their
// generic signature
func (d *UnitDiff) SuperlistChanged() bool {
	return d.SuperClassChanged || d.SuperClassAdded || d.InterfaceAdded || d.InterfaceRemoved ||
		d.SuperlistSignatureChanged
}

// Empty reports whether the unit is structurally unchanged
func (d *UnitDiff) Empty() bool {
	return !d.MembersChanged() && d.Old.Flags == d.New.Flags && !d.SuperlistChanged() &&
		!d.TargetsRemoved && !d.RetentionEscalated && !d.AnnotationSemanticsChanged
}

// IsRemoved reports whether the old member with key was removed
func (d *UnitDiff) IsRemoved(key model.MemberKey) bool {
	return d.removed[key]
}

// ChangeOf returns the change recorded for the old member with key
func (d *UnitDiff) ChangeOf(key model.MemberKey) (ChangedMember, bool) {
	idx, ok := d.changed[key]
	if !ok {
		return ChangedMember{}, false
	}
	return d.Changed[idx], true
}

// AddedMethods returns added methods, constructors only if asked for
func (d *UnitDiff) AddedMethods(withConstructors bool) []*model.Method {
	return methodsOf(d.Added, withConstructors)
}

// RemovedMethods returns removed methods, constructors only if asked for
func (d *UnitDiff) RemovedMethods(withConstructors bool) []*model.Method {
	return methodsOf(d.Removed, withConstructors)
}

// AddedFields returns added fields
func (d *UnitDiff) AddedFields() []*model.Field {
	return fieldsOf(d.Added)
}

// RemovedFields returns removed fields
func (d *UnitDiff) RemovedFields() []*model.Field {
	return fieldsOf(d.Removed)
}

// AddedWithoutDefault reports whether an added method has no annotation default
func (d *UnitDiff) AddedWithoutDefault() bool {
	for _, m := range d.AddedMethods(true) {
		if m.AnnotationDefault == "" {
			return true
		}
	}
	return false
}

// AnnotationDefaultsRemoved reports whether any method lost its annotation default
func (d *UnitDiff) AnnotationDefaultsRemoved() bool {
	for _, c := range d.Changed {
		if c.Change.Method != nil && c.Change.Method.AnnotationDefaultRemoved {
			return true
		}
	}
	return false
}

func methodsOf(members []model.Member, withConstructors bool) []*model.Method {
	var methods []*model.Method
	for _, m := range members {
		if method, ok := m.(*model.Method); ok && (withConstructors || !method.Constructor) {
			methods = append(methods, method)
		}
	}
	return methods
}

func fieldsOf(members []model.Member) []*model.Field {
	var fields []*model.Field
	for _, m := range members {
		if f, ok := m.(*model.Field); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// Engine computes unit diffs over the caches of a round
type Engine struct {
	resolver *cache.Resolver
	rootType string
}

// NewEngine creates a diff engine. rootType is the universal supertype
// (java.lang.Object); a unit whose old superclass was the root type or
// absent gains rather than changes its superclass.
func NewEngine(r *cache.Resolver, rootType string) *Engine {
	return &Engine{resolver: r, rootType: rootType}
}

// Diff compares the old and new record of id. Both records must exist: a
// unit only in the new cache is new and a unit only in the old cache has no
// fresh facts; both yield cache.ErrUnitUnknown. Diff never mutates either cache.
func (e *Engine) Diff(id symbols.Symbol) (*UnitDiff, error) {
	table := e.resolver.Table()
	oldUnit, err := e.resolver.Old.Unit(id)
	if err != nil {
		return nil, err
	}
	newUnit, err := e.resolver.New.Unit(id)
	if err != nil {
		return nil, err
	}

	d := &UnitDiff{
		Unit:    id,
		Old:     oldUnit,
		New:     newUnit,
		removed: make(map[model.MemberKey]bool),
		changed: make(map[model.MemberKey]int),
	}

	d.diffFields()
	if err := e.diffMethods(d); err != nil {
		return nil, err
	}

	d.InterfaceRemoved = interfacesRemoved(oldUnit.Interfaces, newUnit.Interfaces)
	d.InterfaceAdded = interfacesRemoved(newUnit.Interfaces, oldUnit.Interfaces)

	d.SuperlistSignatureChanged, err = e.superlistSignatureChanged(oldUnit.GenericSignature, newUnit.GenericSignature)
	if err != nil {
		return nil, err
	}

	if oldUnit.Super != newUnit.Super {
		fromRoot := !oldUnit.Super.Valid() || table.Name(oldUnit.Super) == e.rootType
		d.SuperClassChanged = !fromRoot
		d.SuperClassAdded = fromRoot
	}

	d.KindChanged = oldUnit.IsInterface() != newUnit.IsInterface()
	d.BecameFinal = !oldUnit.IsFinal() && newUnit.IsFinal()
	d.BecameAbstract = !oldUnit.IsAbstract() && newUnit.IsAbstract()
	d.AccessRestricted = model.IsMoreAccessible(oldUnit.Flags, newUnit.Flags)

	if oldUnit.IsAnnotation() {
		d.RetentionEscalated = oldUnit.Retention.Escalates(newUnit.Retention)
		d.TargetsRemoved = oldUnit.Targets.Removed(newUnit.Targets) != 0
		d.AnnotationSemanticsChanged = e.annotationSemanticsChanged(oldUnit.Annotations, newUnit.Annotations)
	}

	return d, nil
}

func (d *UnitDiff) diffFields() {
	for _, nf := range d.New.Fields {
		if d.Old.FieldByName(nf.Name) == nil {
			d.Added = append(d.Added, nf)
		}
	}
	for _, of := range d.Old.Fields {
		nf := d.New.FieldByName(of.Name)
		if nf == nil {
			d.Removed = append(d.Removed, of)
			d.removed[of.Key()] = true
			continue
		}
		if change := describeField(of, nf); change.Changed() {
			d.addChanged(ChangedMember{Old: of, New: nf, Change: ChangeDescription{Field: &change}})
		}
	}
}

// methodGroups groups methods by name and parameters, keeping declaration
// order. Covariant overrides and their bridges share a group.
func methodGroups(methods []*model.Method) (map[model.MethodSig][]*model.Method, []model.MethodSig) {
	groups := make(map[model.MethodSig][]*model.Method)
	var order []model.MethodSig
	for _, m := range methods {
		sig := m.Sig()
		if _, ok := groups[sig]; !ok {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], m)
	}
	return groups, order
}

func (e *Engine) diffMethods(d *UnitDiff) error {
	oldGroups, oldOrder := methodGroups(d.Old.Methods)
	newGroups, newOrder := methodGroups(d.New.Methods)

	for _, sig := range newOrder {
		if _, ok := oldGroups[sig]; !ok {
			for _, m := range newGroups[sig] {
				d.Added = append(d.Added, m)
			}
		}
	}

	for _, sig := range oldOrder {
		olds := oldGroups[sig]
		news, ok := newGroups[sig]
		if !ok {
			for _, m := range olds {
				d.Removed = append(d.Removed, m)
				d.removed[m.Key()] = true
			}
			continue
		}

		processed := make(map[*model.Method]bool)
		if len(olds) == len(news) {
			for _, om := range olds {
				for _, nm := range news {
					if om.Descriptor != nm.Descriptor {
						continue
					}
					processed[om], processed[nm] = true, true
					if err := e.compareMethods(d, om, nm); err != nil {
						return err
					}
					break
				}
			}
		}
		for _, om := range olds {
			if processed[om] {
				continue
			}
			for _, nm := range news {
				if processed[nm] {
					continue
				}
				if err := e.compareMethods(d, om, nm); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *Engine) compareMethods(d *UnitDiff, om, nm *model.Method) error {
	oldSig, err := e.optionalText(om.GenericSignature)
	if err != nil {
		return err
	}
	newSig, err := e.optionalText(nm.GenericSignature)
	if err != nil {
		return err
	}
	if change := describeMethod(om, nm, oldSig, newSig); change.Changed() {
		d.addChanged(ChangedMember{Old: om, New: nm, Change: ChangeDescription{Method: &change}})
	}
	return nil
}

// addChanged records c. A member compared against several candidates keeps
// the last change, matching one entry per old member.
func (d *UnitDiff) addChanged(c ChangedMember) {
	key := c.Old.Key()
	if idx, ok := d.changed[key]; ok {
		d.Changed[idx] = c
		return
	}
	d.changed[key] = len(d.Changed)
	d.Changed = append(d.Changed, c)
}

func (e *Engine) optionalText(s symbols.Symbol) (string, error) {
	if !s.Valid() {
		return "", nil
	}
	text, err := e.resolver.Table().Text(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", cache.ErrCorruptedMetadata, err)
	}
	return text, nil
}

func (e *Engine) superlistSignatureChanged(oldSig, newSig symbols.Symbol) (bool, error) {
	if oldSig == newSig {
		return false, nil
	}
	if !oldSig.Valid() || !newSig.Valid() {
		return true, nil
	}
	oldText, err := e.optionalText(oldSig)
	if err != nil {
		return false, err
	}
	newText, err := e.optionalText(newSig)
	if err != nil {
		return false, err
	}
	return cutFormalParams(oldText) != cutFormalParams(newText), nil
}

func (e *Engine) annotationSemanticsChanged(oldAnns, newAnns []model.Annotation) bool {
	return !model.AnnotationsEqual(e.semanticAnnotations(oldAnns), e.semanticAnnotations(newAnns))
}

func (e *Engine) semanticAnnotations(anns []model.Annotation) []model.Annotation {
	table := e.resolver.Table()
	kept := make([]model.Annotation, 0, len(anns))
	for _, a := range anns {
		if name := table.Name(a.Type); name == RetentionAnnotation || name == TargetAnnotation {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// interfacesRemoved reports whether any interface of from is missing in to
func interfacesRemoved(from, to []symbols.Symbol) bool {
	present := make(map[symbols.Symbol]bool, len(to))
	for _, s := range to {
		present[s] = true
	}
	for _, s := range from {
		if !present[s] {
			return true
		}
	}
	return false
}
