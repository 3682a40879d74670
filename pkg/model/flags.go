package model

import (
	"fmt"
	"sort"
	"strings"
)

// Flags holds JVM access and property flags of a unit or member
type Flags uint16

const (
	FlagPublic     Flags = 0x0001
	FlagPrivate    Flags = 0x0002
	FlagProtected  Flags = 0x0004
	FlagStatic     Flags = 0x0008
	FlagFinal      Flags = 0x0010
	FlagBridge     Flags = 0x0040 // methods only; shares the bit with volatile on fields
	FlagVarargs    Flags = 0x0080
	FlagInterface  Flags = 0x0200
	FlagAbstract   Flags = 0x0400
	FlagSynthetic  Flags = 0x1000
	FlagAnnotation Flags = 0x2000
	FlagEnum       Flags = 0x4000
)

var flagNames = map[string]Flags{
	"public":     FlagPublic,
	"private":    FlagPrivate,
	"protected":  FlagProtected,
	"static":     FlagStatic,
	"final":      FlagFinal,
	"bridge":     FlagBridge,
	"varargs":    FlagVarargs,
	"interface":  FlagInterface,
	"abstract":   FlagAbstract,
	"synthetic":  FlagSynthetic,
	"annotation": FlagAnnotation,
	"enum":       FlagEnum,
}

// ParseFlags converts flag names (e.g. "public", "abstract") to Flags
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, name := range names {
		bit, ok := flagNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		f |= bit
	}
	return f, nil
}

// Names returns the sorted flag names set in f
func (f Flags) Names() []string {
	var names []string
	for name, bit := range flagNames {
		if f&bit != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (f Flags) String() string {
	return strings.Join(f.Names(), " ")
}

func (f Flags) Has(bits Flags) bool { return f&bits == bits }

func (f Flags) IsPublic() bool     { return f&FlagPublic != 0 }
func (f Flags) IsPrivate() bool    { return f&FlagPrivate != 0 }
func (f Flags) IsProtected() bool  { return f&FlagProtected != 0 }
func (f Flags) IsStatic() bool     { return f&FlagStatic != 0 }
func (f Flags) IsFinal() bool      { return f&FlagFinal != 0 }
func (f Flags) IsBridge() bool     { return f&FlagBridge != 0 }
func (f Flags) IsInterface() bool  { return f&FlagInterface != 0 }
func (f Flags) IsAbstract() bool   { return f&FlagAbstract != 0 }
func (f Flags) IsAnnotation() bool { return f&FlagAnnotation != 0 }

// Access is the visibility level encoded in Flags, ordered from least to
// most accessible.
type Access int

const (
	AccessPrivate Access = iota
	AccessPackage
	AccessProtected
	AccessPublic
)

// Access returns the visibility level of f
func (f Flags) Access() Access {
	switch {
	case f.IsPublic():
		return AccessPublic
	case f.IsProtected():
		return AccessProtected
	case f.IsPrivate():
		return AccessPrivate
	default:
		return AccessPackage
	}
}

// IsMoreAccessible reports whether a grants strictly wider access than b.
// IsMoreAccessible(old, new) means access was restricted.
func IsMoreAccessible(a, b Flags) bool {
	return a.Access() > b.Access()
}
