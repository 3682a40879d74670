package snapshot

import (
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Describe renders u back into document form. Uses are not part of a unit
// record; see DescribeDependents.
func Describe(u *model.Unit, table *symbols.Table) UnitDoc {
	ud := UnitDoc{
		Name:      table.Name(u.Name),
		Flags:     u.Flags.Names(),
		Super:     optional(u.Super, table),
		Signature: optional(u.GenericSignature, table),
		Remote:    u.Remote,
	}
	for _, iface := range u.Interfaces {
		ud.Interfaces = append(ud.Interfaces, table.Name(iface))
	}
	if u.IsAnnotation() {
		ud.Retention = u.Retention.String()
		ud.Targets = u.Targets.Names()
	}
	for _, a := range u.Annotations {
		ud.Annotations = append(ud.Annotations, AnnotationDoc{Type: table.Name(a.Type), Values: a.Values})
	}
	for _, f := range u.Fields {
		ud.Fields = append(ud.Fields, FieldDoc{
			Name:       table.Name(f.Name),
			Descriptor: table.Name(f.Descriptor),
			Flags:      f.Flags.Names(),
			Signature:  optional(f.GenericSignature, table),
			Constant:   f.ConstantValue,
		})
	}
	for _, m := range u.Methods {
		md := MethodDoc{
			Name:       table.Name(m.Name),
			Descriptor: table.Name(m.Descriptor),
			Flags:      m.Flags.Names(),
			Signature:  optional(m.GenericSignature, table),
			Default:    m.AnnotationDefault,
		}
		for _, t := range m.Throws {
			md.Throws = append(md.Throws, table.Name(t))
		}
		ud.Methods = append(ud.Methods, md)
	}
	return ud
}

// DescribeDependents renders back-dependencies as uses, one per dependent
func DescribeDependents(deps []*model.Dependency, table *symbols.Table) []UseDoc {
	uses := make([]UseDoc, 0, len(deps))
	for _, dep := range deps {
		use := UseDoc{Unit: table.Name(dep.Dependent)}
		for _, ref := range dep.FieldRefs() {
			use.Fields = append(use.Fields, table.Name(ref.Name))
		}
		for _, ref := range dep.MethodRefs() {
			use.Methods = append(use.Methods, table.Name(ref.Name)+table.Name(ref.Descriptor))
		}
		uses = append(uses, use)
	}
	return uses
}

func optional(s symbols.Symbol, table *symbols.Table) string {
	if !s.Valid() {
		return ""
	}
	return table.Name(s)
}
