package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

const sampleJSON = `{
  "units": [
    {
      "name": "com.acme.Base",
      "flags": ["public", "abstract"],
      "super": "java.lang.Object",
      "methods": [
        {"name": "<init>", "descriptor": "()V", "flags": ["public"]},
        {"name": "run", "descriptor": "(I)V", "flags": ["public", "abstract"]}
      ]
    },
    {
      "name": "com.acme.Impl",
      "flags": ["public"],
      "super": "com.acme.Base",
      "interfaces": ["java.io.Serializable"],
      "fields": [{"name": "count", "descriptor": "I", "flags": ["private"], "constant": "3"}],
      "methods": [{"name": "run", "descriptor": "(I)V", "flags": ["public"]}],
      "uses": [
        {"unit": "com.acme.Base", "methods": ["<init>()V"]},
        {"unit": "java.lang.String", "methods": ["length()I"]}
      ]
    },
    {
      "name": "com.acme.Client",
      "flags": ["public"],
      "uses": [
        {"unit": "com.acme.Impl", "fields": ["count"], "methods": ["run(I)V"]},
        {"unit": "com.acme.Impl", "methods": ["run(I)V"]},
        {"unit": "com.acme.Client", "methods": ["main()V"]}
      ]
    }
  ]
}`

func loadSample(t *testing.T) (*cache.Cache, *symbols.Table) {
	t.Helper()
	doc, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	table := symbols.NewTable()
	c, err := Build(doc, table)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	return c, table
}

func TestBuildUnits(t *testing.T) {
	c, table := loadSample(t)

	if c.Len() != 3 {
		t.Errorf("Expected 3 units, got %d", c.Len())
	}
	if !c.Frozen() {
		t.Error("Expected built cache to be frozen")
	}

	impl, err := c.Unit(table.Intern("com.acme.Impl"))
	if err != nil {
		t.Fatalf("Unit() unexpected error: %v", err)
	}
	if table.Name(impl.Super) != "com.acme.Base" {
		t.Errorf("Expected super com.acme.Base, got %s", table.Name(impl.Super))
	}
	if len(impl.Fields) != 1 || impl.Fields[0].ConstantValue != "3" {
		t.Errorf("Expected one constant field, got %+v", impl.Fields)
	}
	if !impl.Fields[0].Flags.IsPrivate() {
		t.Error("Expected count to be private")
	}

	client, _ := c.Unit(table.Intern("com.acme.Client"))
	if client.Super.Valid() {
		t.Errorf("Expected no superclass, got %s", table.Name(client.Super))
	}
}

func TestBuildInvertsSubclasses(t *testing.T) {
	c, table := loadSample(t)

	subs, err := c.Subclasses(table.Intern("com.acme.Base"))
	if err != nil {
		t.Fatal(err)
	}
	want := []symbols.Symbol{table.Intern("com.acme.Impl")}
	if !reflect.DeepEqual(subs, want) {
		t.Errorf("Expected subclasses %v, got %v", want, subs)
	}
	if c.Contains(table.Intern("java.io.Serializable")) {
		t.Error("Expected library interface to stay out of the cache")
	}
}

func TestBuildInvertsUses(t *testing.T) {
	c, table := loadSample(t)

	deps, err := c.BackDependencies(table.Intern("com.acme.Impl"))
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 1 {
		t.Fatalf("Expected one dependency on Impl, got %d", len(deps))
	}
	dep := deps[0]
	if table.Name(dep.Dependent) != "com.acme.Client" {
		t.Errorf("Expected dependent com.acme.Client, got %s", table.Name(dep.Dependent))
	}
	if len(dep.FieldRefs()) != 1 || len(dep.MethodRefs()) != 1 {
		t.Errorf("Expected 1 field ref and 1 deduplicated method ref, got %d and %d",
			len(dep.FieldRefs()), len(dep.MethodRefs()))
	}

	clientDeps, _ := c.BackDependencies(table.Intern("com.acme.Client"))
	if len(clientDeps) != 0 {
		t.Errorf("Expected self use to be dropped, got %d dependencies", len(clientDeps))
	}

	impl, _ := c.Unit(table.Intern("com.acme.Impl"))
	ref := dep.MethodRefs()[0]
	if m := impl.Resolve(ref); m == nil || m.Key().Kind != model.KindMethod {
		t.Errorf("Expected method reference to resolve on Impl, got %v", m)
	}
}

func TestBuildRejectsCorruptDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"duplicate unit", Document{Units: []UnitDoc{{Name: "A"}, {Name: "A"}}}},
		{"unnamed unit", Document{Units: []UnitDoc{{Flags: []string{"public"}}}}},
		{"unknown flag", Document{Units: []UnitDoc{{Name: "A", Flags: []string{"sealed"}}}}},
		{"bad field descriptor", Document{Units: []UnitDoc{{Name: "A", Fields: []FieldDoc{{Name: "x", Descriptor: "Q"}}}}}},
		{"bad method descriptor", Document{Units: []UnitDoc{{Name: "A", Methods: []MethodDoc{{Name: "m", Descriptor: "V"}}}}}},
		{"unnamed use", Document{Units: []UnitDoc{{Name: "A", Uses: []UseDoc{{}}}}}},
		{"bad method ref", Document{Units: []UnitDoc{{Name: "A"}, {Name: "B", Uses: []UseDoc{{Unit: "A", Methods: []string{"run"}}}}}}},
		{"unnamed field ref", Document{Units: []UnitDoc{{Name: "A"}, {Name: "B", Uses: []UseDoc{{Unit: "A", Fields: []string{""}}}}}}},
		{"bad retention", Document{Units: []UnitDoc{{Name: "A", Retention: "FOREVER"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&tt.doc, symbols.NewTable())
			if !errors.Is(err, cache.ErrCorruptedMetadata) {
				t.Errorf("Expected ErrCorruptedMetadata, got %v", err)
			}
		})
	}
}

func TestSplitMethodRef(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantDesc string
		wantErr  bool
	}{
		{"run(I)V", "run", "(I)V", false},
		{"<init>()V", "<init>", "()V", false},
		{"get(Ljava/lang/String;[J)Ljava/util/List;", "get", "(Ljava/lang/String;[J)Ljava/util/List;", false},
		{"(I)V", "", "", true},
		{"run", "", "", true},
		{"run(I", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, desc, err := SplitMethodRef(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitMethodRef(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if name != tt.wantName || desc != tt.wantDesc {
				t.Errorf("Expected %q %q, got %q %q", tt.wantName, tt.wantDesc, name, desc)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path, symbols.NewTable())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Expected 3 units, got %d", c.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.json"), symbols.NewTable()); err == nil {
		t.Error("Expected error for missing snapshot")
	}
}

func TestDescribeRoundTrip(t *testing.T) {
	c, table := loadSample(t)
	impl, _ := c.Unit(table.Intern("com.acme.Impl"))

	ud := Describe(impl, table)
	if ud.Name != "com.acme.Impl" || ud.Super != "com.acme.Base" {
		t.Errorf("Unexpected unit header %+v", ud)
	}
	if !reflect.DeepEqual(ud.Interfaces, []string{"java.io.Serializable"}) {
		t.Errorf("Expected interfaces to be rendered, got %v", ud.Interfaces)
	}
	if len(ud.Fields) != 1 || ud.Fields[0].Constant != "3" || ud.Fields[0].Descriptor != "I" {
		t.Errorf("Unexpected fields %+v", ud.Fields)
	}

	rebuilt, err := Build(&Document{Units: []UnitDoc{ud}}, table)
	if err != nil {
		t.Fatalf("Expected described unit to build, got %v", err)
	}
	again, _ := rebuilt.Unit(impl.Name)
	if again.Flags != impl.Flags || len(again.Methods) != len(impl.Methods) {
		t.Errorf("Expected rebuilt unit to match, got %+v", again)
	}

	deps, _ := c.BackDependencies(impl.Name)
	uses := DescribeDependents(deps, table)
	want := []UseDoc{{Unit: "com.acme.Client", Fields: []string{"count"}, Methods: []string{"run(I)V"}}}
	if !reflect.DeepEqual(uses, want) {
		t.Errorf("Expected %+v, got %+v", want, uses)
	}
}
