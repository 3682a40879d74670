package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/logging"
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Load reads a snapshot document from path and builds a frozen cache
func Load(path string, table *symbols.Table) (*cache.Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	c, err := Build(doc, table)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	logging.Debug("loaded snapshot", "path", path, "units", c.Len())
	return c, nil
}

// Parse decodes a JSON snapshot document
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Build converts doc into a frozen cache. Forward uses are inverted into
// back-dependencies of the used unit, and superclass/interface links into
// subclass lists. Links to units outside the document (library types) are
// kept on the referencing side only.
func Build(doc *Document, table *symbols.Table) (*cache.Cache, error) {
	units := make(map[symbols.Symbol]*model.Unit, len(doc.Units))
	order := make([]*model.Unit, 0, len(doc.Units))

	for i := range doc.Units {
		u, err := buildUnit(&doc.Units[i], table)
		if err != nil {
			return nil, err
		}
		if _, dup := units[u.Name]; dup {
			return nil, fmt.Errorf("%w: unit %s declared twice", cache.ErrCorruptedMetadata, doc.Units[i].Name)
		}
		units[u.Name] = u
		order = append(order, u)
	}

	for _, u := range order {
		supers := u.Interfaces
		if u.Super.Valid() {
			supers = append([]symbols.Symbol{u.Super}, u.Interfaces...)
		}
		for _, s := range supers {
			if super, ok := units[s]; ok {
				super.Subclasses = appendUnique(super.Subclasses, u.Name)
			}
		}
	}

	for i, u := range order {
		for _, use := range doc.Units[i].Uses {
			if err := addUse(u, use, units, table); err != nil {
				return nil, err
			}
		}
	}

	c := cache.New(table)
	for _, u := range order {
		if err := c.Put(u); err != nil {
			return nil, err
		}
	}
	c.Freeze()
	return c, nil
}

func buildUnit(ud *UnitDoc, table *symbols.Table) (*model.Unit, error) {
	if ud.Name == "" {
		return nil, fmt.Errorf("%w: unit without a name", cache.ErrCorruptedMetadata)
	}
	flags, err := model.ParseFlags(ud.Flags)
	if err != nil {
		return nil, fmt.Errorf("%w: unit %s: %v", cache.ErrCorruptedMetadata, ud.Name, err)
	}
	u := model.NewUnit(table.Intern(ud.Name), flags)
	u.Super = table.InternOptional(ud.Super)
	u.GenericSignature = table.InternOptional(ud.Signature)
	u.Remote = ud.Remote
	for _, iface := range ud.Interfaces {
		u.Interfaces = append(u.Interfaces, table.Intern(iface))
	}

	if u.Retention, err = model.ParseRetention(ud.Retention); err != nil {
		return nil, fmt.Errorf("%w: unit %s: %v", cache.ErrCorruptedMetadata, ud.Name, err)
	}
	if u.Targets, err = model.ParseTargets(ud.Targets); err != nil {
		return nil, fmt.Errorf("%w: unit %s: %v", cache.ErrCorruptedMetadata, ud.Name, err)
	}
	for _, a := range ud.Annotations {
		u.Annotations = append(u.Annotations, model.Annotation{Type: table.Intern(a.Type), Values: a.Values})
	}

	for _, fd := range ud.Fields {
		f, err := buildField(u.Name, fd, table)
		if err != nil {
			return nil, fmt.Errorf("%w: unit %s: %v", cache.ErrCorruptedMetadata, ud.Name, err)
		}
		u.Fields = append(u.Fields, f)
	}
	for _, md := range ud.Methods {
		m, err := buildMethod(u.Name, md, table)
		if err != nil {
			return nil, fmt.Errorf("%w: unit %s: %v", cache.ErrCorruptedMetadata, ud.Name, err)
		}
		u.Methods = append(u.Methods, m)
	}
	return u, nil
}

func buildField(owner symbols.Symbol, fd FieldDoc, table *symbols.Table) (*model.Field, error) {
	flags, err := model.ParseFlags(fd.Flags)
	if err != nil {
		return nil, err
	}
	f, err := model.NewField(table, owner, fd.Name, fd.Descriptor, flags)
	if err != nil {
		return nil, err
	}
	f.GenericSignature = table.InternOptional(fd.Signature)
	f.ConstantValue = fd.Constant
	return f, nil
}

func buildMethod(owner symbols.Symbol, md MethodDoc, table *symbols.Table) (*model.Method, error) {
	flags, err := model.ParseFlags(md.Flags)
	if err != nil {
		return nil, err
	}
	m, err := model.NewMethod(table, owner, md.Name, md.Descriptor, flags)
	if err != nil {
		return nil, err
	}
	m.GenericSignature = table.InternOptional(md.Signature)
	m.AnnotationDefault = md.Default
	for _, t := range md.Throws {
		m.Throws = append(m.Throws, table.Intern(t))
	}
	return m, nil
}

func addUse(u *model.Unit, use UseDoc, units map[symbols.Symbol]*model.Unit, table *symbols.Table) error {
	if use.Unit == "" {
		return fmt.Errorf("%w: unit %s uses a unit without a name", cache.ErrCorruptedMetadata, table.Name(u.Name))
	}
	targetID := table.Intern(use.Unit)
	target, ok := units[targetID]
	if !ok || targetID == u.Name {
		return nil
	}

	var dep *model.Dependency
	for _, d := range target.BackDependencies {
		if d.Dependent == u.Name {
			dep = d
			break
		}
	}
	if dep == nil {
		dep = model.NewDependency(u.Name, targetID)
		target.BackDependencies = append(target.BackDependencies, dep)
	}

	for _, name := range use.Fields {
		if name == "" {
			return fmt.Errorf("%w: unit %s uses an unnamed field of %s", cache.ErrCorruptedMetadata, table.Name(u.Name), use.Unit)
		}
		dep.Add(model.MemberRef{Kind: model.KindField, Name: table.Intern(name), Descriptor: symbols.None})
	}
	for _, text := range use.Methods {
		name, desc, err := SplitMethodRef(text)
		if err != nil {
			return fmt.Errorf("%w: unit %s: %v", cache.ErrCorruptedMetadata, table.Name(u.Name), err)
		}
		dep.Add(model.MemberRef{Kind: model.KindMethod, Name: table.Intern(name), Descriptor: table.Intern(desc)})
	}
	return nil
}

// SplitMethodRef splits "name(params)ret" into name and descriptor
func SplitMethodRef(text string) (name, desc string, err error) {
	idx := strings.IndexByte(text, '(')
	if idx <= 0 {
		return "", "", fmt.Errorf("invalid method reference %q", text)
	}
	name, desc = text[:idx], text[idx:]
	if _, err := symbols.ParseMethodDescriptor(desc); err != nil {
		return "", "", fmt.Errorf("invalid method reference %q: %w", text, err)
	}
	return name, desc, nil
}

func appendUnique(list []symbols.Symbol, s symbols.Symbol) []symbols.Symbol {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
