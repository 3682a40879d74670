package model

import (
	"strings"

	"github.com/ritzau/classdeps/pkg/symbols"
)

// Unit is the structural record of one compiled class, interface or
// annotation type. A Unit is never updated in place: recompiling a unit
// produces a fresh record in the new cache.
type Unit struct {
	Name             symbols.Symbol   `json:"name"`
	Flags            Flags            `json:"flags"`
	Super            symbols.Symbol   `json:"super"` // None for the root type and interfaces without one
	Interfaces       []symbols.Symbol `json:"interfaces,omitempty"`
	GenericSignature symbols.Symbol   `json:"signature"` // None if the unit is not generic

	Fields  []*Field  `json:"fields,omitempty"`
	Methods []*Method `json:"methods,omitempty"`

	// Subclasses lists units naming this unit as superclass or superinterface
	Subclasses []symbols.Symbol `json:"subclasses,omitempty"`
	// BackDependencies lists, per dependent unit, the members of this unit
	// that the dependent's compiled form references
	BackDependencies []*Dependency `json:"backDependencies,omitempty"`

	// Annotation type metadata
	Retention   RetentionPolicy `json:"retention"`
	Targets     Targets         `json:"targets"`
	Annotations []Annotation    `json:"annotations,omitempty"`

	// Remote is set on interfaces that extend java.rmi.Remote
	Remote bool `json:"remote,omitempty"`
}

// NewUnit creates an empty record for name
func NewUnit(name symbols.Symbol, flags Flags) *Unit {
	return &Unit{
		Name:             name,
		Flags:            flags,
		Super:            symbols.None,
		GenericSignature: symbols.None,
		Targets:          AllTargets,
	}
}

func (u *Unit) IsInterface() bool  { return u.Flags.IsInterface() }
func (u *Unit) IsAnnotation() bool { return u.Flags.IsAnnotation() }
func (u *Unit) IsAbstract() bool   { return u.Flags.IsAbstract() }
func (u *Unit) IsFinal() bool      { return u.Flags.IsFinal() }

// Members returns fields followed by methods
func (u *Unit) Members() []Member {
	members := make([]Member, 0, len(u.Fields)+len(u.Methods))
	for _, f := range u.Fields {
		members = append(members, f)
	}
	for _, m := range u.Methods {
		members = append(members, m)
	}
	return members
}

// FieldByName returns the field declared with name, or nil
func (u *Unit) FieldByName(name symbols.Symbol) *Field {
	for _, f := range u.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// MethodsByName returns every method declared with name
func (u *Unit) MethodsByName(name symbols.Symbol) []*Method {
	var methods []*Method
	for _, m := range u.Methods {
		if m.Name == name {
			methods = append(methods, m)
		}
	}
	return methods
}

// MethodBySig returns a method matching name and parameters, preferring a
// non-bridge method when covariant bridges share the signature
func (u *Unit) MethodBySig(sig MethodSig) *Method {
	var found *Method
	for _, m := range u.Methods {
		if m.Sig() != sig {
			continue
		}
		if !m.Flags.IsBridge() {
			return m
		}
		if found == nil {
			found = m
		}
	}
	return found
}

// MethodByDescriptor returns the method with exactly this name and descriptor
func (u *Unit) MethodByDescriptor(name, desc symbols.Symbol) *Method {
	for _, m := range u.Methods {
		if m.Name == name && m.Descriptor == desc {
			return m
		}
	}
	return nil
}

// Resolve maps a member reference onto the member this unit declares, or
// nil if the unit does not declare it (the reference may target an
// inherited member).
func (u *Unit) Resolve(ref MemberRef) Member {
	switch ref.Kind {
	case KindField:
		if f := u.FieldByName(ref.Name); f != nil {
			return f
		}
	case KindMethod:
		if m := u.MethodByDescriptor(ref.Name, ref.Descriptor); m != nil {
			return m
		}
	}
	return nil
}

// IsAnonymousName reports whether a binary class name denotes an anonymous
// class, e.g. "com.acme.Outer$1"
func IsAnonymousName(name string) bool {
	idx := strings.LastIndexByte(name, '$')
	if idx < 0 || idx == len(name)-1 {
		return false
	}
	for _, r := range name[idx+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
