package diff

import (
	"strings"

	"github.com/ritzau/classdeps/pkg/model"
)

// MethodChange describes how a method differs between two snapshots
type MethodChange struct {
	ReturnType               bool `json:"returnType,omitempty"`
	ReturnGenericSignature   bool `json:"returnGenericSignature,omitempty"`
	ParamsGenericSignature   bool `json:"paramsGenericSignature,omitempty"`
	Throws                   bool `json:"throws,omitempty"`
	Static                   bool `json:"static,omitempty"`
	AccessRestricted         bool `json:"accessRestricted,omitempty"`
	BecameAbstract           bool `json:"becameAbstract,omitempty"`
	BecameFinal              bool `json:"becameFinal,omitempty"`
	AnnotationDefaultRemoved bool `json:"annotationDefaultRemoved,omitempty"`
	FlagsChanged             bool `json:"flagsChanged,omitempty"`
}

// Changed reports whether any attribute differs
func (c MethodChange) Changed() bool {
	return c.ReturnType || c.ReturnGenericSignature || c.ParamsGenericSignature || c.Throws ||
		c.Static || c.AccessRestricted || c.BecameAbstract || c.BecameFinal ||
		c.AnnotationDefaultRemoved || c.FlagsChanged
}

// SourceIncompatible reports whether code calling the method must be
// recompiled against the new version
func (c MethodChange) SourceIncompatible() bool {
	return c.ReturnType || c.ReturnGenericSignature || c.ParamsGenericSignature || c.Throws ||
		c.Static || c.AccessRestricted
}

// FieldChange describes how a field differs between two snapshots
type FieldChange struct {
	Type             bool `json:"type,omitempty"`
	GenericSignature bool `json:"genericSignature,omitempty"`
	ConstantValue    bool `json:"constantValue,omitempty"`
	Static           bool `json:"static,omitempty"`
	AccessRestricted bool `json:"accessRestricted,omitempty"`
	FlagsChanged     bool `json:"flagsChanged,omitempty"`
}

// Changed reports whether any attribute differs
func (c FieldChange) Changed() bool {
	return c.Type || c.GenericSignature || c.ConstantValue || c.Static || c.AccessRestricted || c.FlagsChanged
}

// ChangeDescription is the change of one member pair. Exactly one of Method
// and Field is set.
type ChangeDescription struct {
	Method *MethodChange `json:"method,omitempty"`
	Field  *FieldChange  `json:"field,omitempty"`
}

// SourceIncompatible reports whether users of the member must be recompiled.
// Every field change is incompatible: callers may have inlined the value or
// baked in the type.
func (d ChangeDescription) SourceIncompatible() bool {
	if d.Field != nil {
		return true
	}
	return d.Method != nil && d.Method.SourceIncompatible()
}

func describeMethod(oldM, newM *model.Method, oldSig, newSig string) MethodChange {
	oldParams, oldReturn := splitMethodSignature(oldSig)
	newParams, newReturn := splitMethodSignature(newSig)
	return MethodChange{
		ReturnType:               oldM.Return != newM.Return,
		ReturnGenericSignature:   oldReturn != newReturn,
		ParamsGenericSignature:   oldParams != newParams,
		Throws:                   !model.SameThrows(oldM.Throws, newM.Throws),
		Static:                   oldM.Flags.IsStatic() != newM.Flags.IsStatic(),
		AccessRestricted:         model.IsMoreAccessible(oldM.Flags, newM.Flags),
		BecameAbstract:           !oldM.Flags.IsAbstract() && newM.Flags.IsAbstract(),
		BecameFinal:              !oldM.Flags.IsFinal() && newM.Flags.IsFinal(),
		AnnotationDefaultRemoved: oldM.AnnotationDefault != "" && newM.AnnotationDefault == "",
		FlagsChanged:             oldM.Flags != newM.Flags,
	}
}

func describeField(oldF, newF *model.Field) FieldChange {
	return FieldChange{
		Type:             oldF.Descriptor != newF.Descriptor,
		GenericSignature: oldF.GenericSignature != newF.GenericSignature,
		ConstantValue:    oldF.ConstantValue != newF.ConstantValue,
		Static:           oldF.Flags.IsStatic() != newF.Flags.IsStatic(),
		AccessRestricted: model.IsMoreAccessible(oldF.Flags, newF.Flags),
		FlagsChanged:     oldF.Flags != newF.Flags,
	}
}

// splitMethodSignature splits a generic method signature such as
// "<T:Ljava/lang/Object;>(TT;)Ljava/util/List<TT;>;^Ljava/io/IOException;"
// into its parameter and return parts. An empty signature yields two empty parts.
func splitMethodSignature(sig string) (params, ret string) {
	if sig == "" {
		return "", ""
	}
	rest := sig
	if strings.HasPrefix(rest, "<") {
		if idx := strings.Index(rest, ">("); idx >= 0 {
			rest = rest[idx+1:]
		}
	}
	open := strings.IndexByte(rest, '(')
	closeIdx := strings.LastIndexByte(rest, ')')
	if open < 0 || closeIdx < open {
		return "", rest
	}
	params = rest[open+1 : closeIdx]
	ret = rest[closeIdx+1:]
	if idx := strings.IndexByte(ret, '^'); idx >= 0 {
		ret = ret[:idx]
	}
	return params, ret
}

// cutFormalParams strips the formal type parameter section of a class
// signature: everything up to the first '>' when the signature starts with '<'.
func cutFormalParams(sig string) string {
	if strings.HasPrefix(sig, "<") {
		if idx := strings.IndexByte(sig, '>'); idx >= 0 {
			return sig[idx+1:]
		}
	}
	return sig
}
