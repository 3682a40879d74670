package model

import (
	"fmt"

	"github.com/ritzau/classdeps/pkg/symbols"
)

// MemberKind distinguishes fields from methods
type MemberKind uint8

const (
	KindField MemberKind = iota + 1
	KindMethod
)

func (k MemberKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// ConstructorName is the binary name of instance initializers
const ConstructorName = "<init>"

// MemberKey is the structural identity of a member: the same logical member
// read from two snapshots yields equal keys. Fields are identified by name
// alone (a unit cannot declare two fields with one name), so Descriptor is
// None for fields and a field type change shows up as a changed member.
type MemberKey struct {
	Owner      symbols.Symbol
	Kind       MemberKind
	Name       symbols.Symbol
	Descriptor symbols.Symbol
}

// MethodSig identifies a method up to its return type: name plus parameter
// descriptors. Covariant overrides share a MethodSig.
type MethodSig struct {
	Name   symbols.Symbol
	Params symbols.Symbol
}

// Member is a field or a method declared directly on a unit
type Member interface {
	Key() MemberKey
	Info() *MemberInfo
}

// MemberInfo holds what fields and methods have in common
type MemberInfo struct {
	Owner            symbols.Symbol
	Name             symbols.Symbol
	Flags            Flags
	Descriptor       symbols.Symbol
	GenericSignature symbols.Symbol
}

// Field is a field record
type Field struct {
	MemberInfo
	// ConstantValue is the rendered compile-time constant, "" if none.
	// Callers inline constants, so a changed value invalidates them.
	ConstantValue string
}

func (f *Field) Key() MemberKey {
	return MemberKey{Owner: f.Owner, Kind: KindField, Name: f.Name, Descriptor: symbols.None}
}

func (f *Field) Info() *MemberInfo { return &f.MemberInfo }

// Method is a method record
type Method struct {
	MemberInfo
	Params      []symbols.Symbol // parameter descriptors
	ParamsKey   symbols.Symbol   // "(...)" part of the descriptor
	Return      symbols.Symbol   // return type descriptor
	Throws      []symbols.Symbol // declared exception units
	Constructor bool
	// AnnotationDefault is the rendered default of an annotation type
	// element, "" if the element has none.
	AnnotationDefault string
}

func (m *Method) Key() MemberKey {
	return MemberKey{Owner: m.Owner, Kind: KindMethod, Name: m.Name, Descriptor: m.Descriptor}
}

func (m *Method) Info() *MemberInfo { return &m.MemberInfo }

// Sig returns the name+parameters identity of m
func (m *Method) Sig() MethodSig {
	return MethodSig{Name: m.Name, Params: m.ParamsKey}
}

// NewField builds a field record, validating the descriptor
func NewField(table *symbols.Table, owner symbols.Symbol, name, desc string, flags Flags) (*Field, error) {
	if err := symbols.ParseFieldDescriptor(desc); err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	return &Field{
		MemberInfo: MemberInfo{
			Owner:            owner,
			Name:             table.Intern(name),
			Flags:            flags,
			Descriptor:       table.Intern(desc),
			GenericSignature: symbols.None,
		},
	}, nil
}

// NewMethod builds a method record, splitting the descriptor into
// parameter and return descriptors
func NewMethod(table *symbols.Table, owner symbols.Symbol, name, desc string, flags Flags) (*Method, error) {
	mt, err := symbols.ParseMethodDescriptor(desc)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}
	params := make([]symbols.Symbol, len(mt.Params))
	for i, p := range mt.Params {
		params[i] = table.Intern(p)
	}
	return &Method{
		MemberInfo: MemberInfo{
			Owner:            owner,
			Name:             table.Intern(name),
			Flags:            flags,
			Descriptor:       table.Intern(desc),
			GenericSignature: symbols.None,
		},
		Params:      params,
		ParamsKey:   table.Intern(mt.ParamsKey()),
		Return:      table.Intern(mt.Return),
		Constructor: name == ConstructorName,
	}, nil
}

// SameThrows compares two thrown-exception lists as sets
func SameThrows(a, b []symbols.Symbol) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[symbols.Symbol]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
