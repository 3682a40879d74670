package model

import (
	"testing"

	"github.com/ritzau/classdeps/pkg/symbols"
)

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"public", "Abstract", " interface "})
	if err != nil {
		t.Fatalf("ParseFlags() unexpected error: %v", err)
	}
	if !f.IsPublic() || !f.IsAbstract() || !f.IsInterface() {
		t.Errorf("Expected public abstract interface, got %s", f)
	}
	if f.IsFinal() {
		t.Error("Did not expect final")
	}

	if _, err := ParseFlags([]string{"sealed"}); err == nil {
		t.Error("Expected error for unknown flag")
	}
}

func TestIsMoreAccessible(t *testing.T) {
	tests := []struct {
		a, b Flags
		want bool
	}{
		{FlagPublic, FlagProtected, true},
		{FlagProtected, 0, true},
		{0, FlagPrivate, true},
		{FlagPrivate, FlagPublic, false},
		{FlagPublic, FlagPublic | FlagFinal, false},
	}
	for _, tt := range tests {
		if got := IsMoreAccessible(tt.a, tt.b); got != tt.want {
			t.Errorf("IsMoreAccessible(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRetentionEscalates(t *testing.T) {
	tests := []struct {
		from, to RetentionPolicy
		want     bool
	}{
		{RetentionSource, RetentionClass, true},
		{RetentionSource, RetentionRuntime, true},
		{RetentionClass, RetentionRuntime, true},
		{RetentionRuntime, RetentionClass, false},
		{RetentionClass, RetentionSource, false},
		{RetentionClass, RetentionClass, false},
	}
	for _, tt := range tests {
		if got := tt.from.Escalates(tt.to); got != tt.want {
			t.Errorf("%s.Escalates(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTargets(t *testing.T) {
	all, err := ParseTargets(nil)
	if err != nil || all != AllTargets {
		t.Fatalf("Expected AllTargets for empty list, got %v (%v)", all, err)
	}

	old, _ := ParseTargets([]string{"TYPE", "METHOD"})
	next, _ := ParseTargets([]string{"type"})
	if removed := old.Removed(next); removed != TargetMethod {
		t.Errorf("Expected METHOD removed, got %b", removed)
	}
	if removed := next.Removed(old); removed != 0 {
		t.Errorf("Expected nothing removed, got %b", removed)
	}
}

func TestAnnotationsEqual(t *testing.T) {
	a := []Annotation{{Type: 1, Values: map[string]string{"value": "x"}}, {Type: 2}}
	b := []Annotation{{Type: 2}, {Type: 1, Values: map[string]string{"value": "x"}}}
	c := []Annotation{{Type: 2}, {Type: 1, Values: map[string]string{"value": "y"}}}

	if !AnnotationsEqual(a, b) {
		t.Error("Expected annotation order to be insignificant")
	}
	if AnnotationsEqual(a, c) {
		t.Error("Expected differing values to compare unequal")
	}
	if AnnotationsEqual(a, a[:1]) {
		t.Error("Expected differing counts to compare unequal")
	}
}

func TestMemberKeysAreStructural(t *testing.T) {
	table := symbols.NewTable()
	owner := table.Intern("a.A")

	m1, err := NewMethod(table, owner, "run", "(I)V", FlagPublic)
	if err != nil {
		t.Fatal(err)
	}
	m2, _ := NewMethod(table, owner, "run", "(I)V", FlagPublic|FlagFinal)
	m3, _ := NewMethod(table, owner, "run", "(I)I", FlagPublic)

	if m1.Key() != m2.Key() {
		t.Error("Expected same name and descriptor to give equal keys")
	}
	if m1.Key() == m3.Key() {
		t.Error("Expected different descriptors to give different keys")
	}
	if m1.Sig() != m3.Sig() {
		t.Error("Expected covariant methods to share a signature")
	}

	set := map[MemberKey]bool{m1.Key(): true}
	if !set[m2.Key()] {
		t.Error("Expected key lookup across distinct records to succeed")
	}

	f1, _ := NewField(table, owner, "X", "I", FlagPublic)
	f2, _ := NewField(table, owner, "X", "J", FlagPublic)
	if f1.Key() != f2.Key() {
		t.Error("Expected fields to be keyed by name")
	}
}

func TestNewMethodConstructor(t *testing.T) {
	table := symbols.NewTable()
	m, err := NewMethod(table, table.Intern("a.A"), "<init>", "(Ljava/lang/String;)V", FlagPublic)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Constructor {
		t.Error("Expected <init> to be a constructor")
	}
	if len(m.Params) != 1 || table.Name(m.Params[0]) != "Ljava/lang/String;" {
		t.Errorf("Unexpected params: %v", m.Params)
	}
	if _, err := NewMethod(table, 0, "bad", "V", 0); err == nil {
		t.Error("Expected error for malformed descriptor")
	}
}

func TestUnitResolve(t *testing.T) {
	table := symbols.NewTable()
	owner := table.Intern("a.A")
	u := NewUnit(owner, FlagPublic)
	f, _ := NewField(table, owner, "X", "I", FlagPublic)
	m, _ := NewMethod(table, owner, "run", "(I)V", FlagPublic)
	u.Fields = append(u.Fields, f)
	u.Methods = append(u.Methods, m)

	if got := u.Resolve(MemberRef{Kind: KindField, Name: table.Intern("X"), Descriptor: table.Intern("J")}); got != Member(f) {
		t.Errorf("Expected field X, got %v", got)
	}
	if got := u.Resolve(MemberRef{Kind: KindMethod, Name: table.Intern("run"), Descriptor: table.Intern("(I)V")}); got != Member(m) {
		t.Errorf("Expected method run, got %v", got)
	}
	if got := u.Resolve(MemberRef{Kind: KindMethod, Name: table.Intern("run"), Descriptor: table.Intern("(J)V")}); got != nil {
		t.Errorf("Expected nil for undeclared overload, got %v", got)
	}
}

func TestDependencyAddDeduplicates(t *testing.T) {
	d := NewDependency(1, 2)
	ref := MemberRef{Kind: KindMethod, Name: 3, Descriptor: 4}
	d.Add(ref)
	d.Add(ref)
	d.Add(MemberRef{Kind: KindField, Name: 5, Descriptor: symbols.None})

	if len(d.Refs) != 2 {
		t.Errorf("Expected 2 refs, got %d", len(d.Refs))
	}
	if len(d.MethodRefs()) != 1 || len(d.FieldRefs()) != 1 {
		t.Errorf("Expected one ref of each kind, got %d methods and %d fields", len(d.MethodRefs()), len(d.FieldRefs()))
	}
}

func TestIsAnonymousName(t *testing.T) {
	tests := map[string]bool{
		"com.acme.Outer$1":     true,
		"com.acme.Outer$12":    true,
		"com.acme.Outer$Inner": false,
		"com.acme.Outer":       false,
		"com.acme.Outer$":      false,
	}
	for name, want := range tests {
		if got := IsAnonymousName(name); got != want {
			t.Errorf("IsAnonymousName(%q) = %v, want %v", name, got, want)
		}
	}
}
