package model

import "github.com/ritzau/classdeps/pkg/symbols"

// MemberRef is a reference from compiled code to a member of another unit
type MemberRef struct {
	Kind       MemberKind     `json:"kind"`
	Name       symbols.Symbol `json:"name"`
	Descriptor symbols.Symbol `json:"descriptor"`
}

// Dependency records that Dependent's compiled form references Target and
// which of Target's members it uses. There is one Dependency per
// (dependent, target) pair; extraction only appends to it and propagation
// only reads it.
type Dependency struct {
	Dependent symbols.Symbol `json:"dependent"`
	Target    symbols.Symbol `json:"target"`
	Refs      []MemberRef    `json:"refs,omitempty"`
}

// NewDependency creates an empty dependency edge
func NewDependency(dependent, target symbols.Symbol) *Dependency {
	return &Dependency{Dependent: dependent, Target: target}
}

// Add appends ref unless it is already recorded
func (d *Dependency) Add(ref MemberRef) {
	for _, r := range d.Refs {
		if r == ref {
			return
		}
	}
	d.Refs = append(d.Refs, ref)
}

// FieldRefs returns the referenced fields
func (d *Dependency) FieldRefs() []MemberRef {
	return d.refsOfKind(KindField)
}

// MethodRefs returns the referenced methods
func (d *Dependency) MethodRefs() []MemberRef {
	return d.refsOfKind(KindMethod)
}

func (d *Dependency) refsOfKind(kind MemberKind) []MemberRef {
	var refs []MemberRef
	for _, r := range d.Refs {
		if r.Kind == kind {
			refs = append(refs, r)
		}
	}
	return refs
}

// KeyIn returns the key the referenced member would have if declared by owner
func (r MemberRef) KeyIn(owner symbols.Symbol) MemberKey {
	if r.Kind == KindField {
		return MemberKey{Owner: owner, Kind: KindField, Name: r.Name, Descriptor: symbols.None}
	}
	return MemberKey{Owner: owner, Kind: KindMethod, Name: r.Name, Descriptor: r.Descriptor}
}
