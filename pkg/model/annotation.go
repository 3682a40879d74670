package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ritzau/classdeps/pkg/symbols"
)

// RetentionPolicy of an annotation type. The zero value is CLASS, which is
// what the compiler assumes when @Retention is absent.
type RetentionPolicy uint8

const (
	RetentionClass RetentionPolicy = iota
	RetentionSource
	RetentionRuntime
)

func (p RetentionPolicy) String() string {
	switch p {
	case RetentionSource:
		return "SOURCE"
	case RetentionRuntime:
		return "RUNTIME"
	default:
		return "CLASS"
	}
}

// ParseRetention parses "SOURCE", "CLASS" or "RUNTIME" (empty means CLASS)
func ParseRetention(s string) (RetentionPolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CLASS":
		return RetentionClass, nil
	case "SOURCE":
		return RetentionSource, nil
	case "RUNTIME":
		return RetentionRuntime, nil
	default:
		return 0, fmt.Errorf("unknown retention policy %q", s)
	}
}

// Escalates reports whether moving from p to next makes the annotation
// visible in more compiled artifacts: SOURCE -> CLASS/RUNTIME, CLASS -> RUNTIME.
func (p RetentionPolicy) Escalates(next RetentionPolicy) bool {
	switch p {
	case RetentionSource:
		return next == RetentionClass || next == RetentionRuntime
	case RetentionClass:
		return next == RetentionRuntime
	default:
		return false
	}
}

// Targets is the bitmask of element kinds an annotation type may be applied to
type Targets uint16

const (
	TargetType Targets = 1 << iota
	TargetField
	TargetMethod
	TargetParameter
	TargetConstructor
	TargetLocalVariable
	TargetAnnotationType
	TargetPackage
	TargetTypeParameter
	TargetTypeUse
	TargetRecordComponent
)

// AllTargets applies when an annotation type declares no @Target
const AllTargets = TargetType | TargetField | TargetMethod | TargetParameter | TargetConstructor |
	TargetLocalVariable | TargetAnnotationType | TargetPackage | TargetTypeParameter | TargetTypeUse |
	TargetRecordComponent

var targetNames = map[string]Targets{
	"TYPE":             TargetType,
	"FIELD":            TargetField,
	"METHOD":           TargetMethod,
	"PARAMETER":        TargetParameter,
	"CONSTRUCTOR":      TargetConstructor,
	"LOCAL_VARIABLE":   TargetLocalVariable,
	"ANNOTATION_TYPE":  TargetAnnotationType,
	"PACKAGE":          TargetPackage,
	"TYPE_PARAMETER":   TargetTypeParameter,
	"TYPE_USE":         TargetTypeUse,
	"RECORD_COMPONENT": TargetRecordComponent,
}

// ParseTargets parses element kind names. An empty list means AllTargets.
func ParseTargets(names []string) (Targets, error) {
	if len(names) == 0 {
		return AllTargets, nil
	}
	var t Targets
	for _, name := range names {
		bit, ok := targetNames[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown annotation target %q", name)
		}
		t |= bit
	}
	return t, nil
}

// Names returns the sorted element kind names in t, nil for AllTargets
func (t Targets) Names() []string {
	if t == AllTargets {
		return nil
	}
	var names []string
	for name, bit := range targetNames {
		if t&bit != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Removed returns the targets present in t but missing from next
func (t Targets) Removed(next Targets) Targets {
	return t &^ next
}

// Annotation is a meta annotation applied to a unit, with its element
// values rendered as text.
type Annotation struct {
	Type   symbols.Symbol    `json:"type"`
	Values map[string]string `json:"values,omitempty"`
}

// AnnotationsEqual compares two annotation lists as sets keyed by type.
// The order annotations were declared in is not significant.
func AnnotationsEqual(a, b []Annotation) bool {
	if len(a) != len(b) {
		return false
	}
	byType := make(map[symbols.Symbol]Annotation, len(a))
	for _, ann := range a {
		byType[ann.Type] = ann
	}
	for _, ann := range b {
		other, ok := byType[ann.Type]
		if !ok || !valuesEqual(other.Values, ann.Values) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
