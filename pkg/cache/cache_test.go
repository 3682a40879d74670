package cache

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

func newUnit(t *testing.T, table *symbols.Table, name string) *model.Unit {
	t.Helper()
	return model.NewUnit(table.Intern(name), model.FlagPublic)
}

func TestCachePutAndLookup(t *testing.T) {
	table := symbols.NewTable()
	c := New(table)

	a := newUnit(t, table, "a.A")
	f, err := model.NewField(table, a.Name, "X", "I", model.FlagPublic)
	if err != nil {
		t.Fatal(err)
	}
	a.Fields = append(a.Fields, f)
	if err := c.Put(a); err != nil {
		t.Fatalf("Put() unexpected error: %v", err)
	}

	got, err := c.Unit(a.Name)
	if err != nil {
		t.Fatalf("Unit() unexpected error: %v", err)
	}
	if got != a {
		t.Error("Expected the stored record back")
	}
	if !c.Contains(a.Name) {
		t.Error("Expected Contains to report the unit")
	}
	if field, _ := c.FindFieldByName(a.Name, table.Intern("X")); field != f {
		t.Errorf("Expected field X, got %v", field)
	}
	members, _ := c.Members(a.Name)
	if len(members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(members))
	}
}

func TestCacheUnknownUnit(t *testing.T) {
	table := symbols.NewTable()
	c := New(table)

	_, err := c.Unit(table.Intern("java.lang.String"))
	if !errors.Is(err, ErrUnitUnknown) {
		t.Errorf("Expected ErrUnitUnknown, got %v", err)
	}
	if _, err := c.BackDependencies(table.Intern("java.lang.String")); !errors.Is(err, ErrUnitUnknown) {
		t.Errorf("Expected ErrUnitUnknown from BackDependencies, got %v", err)
	}
}

func TestCachePutReplacesWholesale(t *testing.T) {
	table := symbols.NewTable()
	c := New(table)

	first := newUnit(t, table, "a.A")
	first.Subclasses = []symbols.Symbol{table.Intern("a.B")}
	second := newUnit(t, table, "a.A")

	_ = c.Put(first)
	_ = c.Put(second)

	subs, _ := c.Subclasses(first.Name)
	if len(subs) != 0 {
		t.Errorf("Expected replacement to drop old subclasses, got %v", subs)
	}
}

func TestCacheFreeze(t *testing.T) {
	table := symbols.NewTable()
	c := New(table)
	_ = c.Put(newUnit(t, table, "a.A"))
	c.Freeze()

	if err := c.Put(newUnit(t, table, "a.B")); !errors.Is(err, ErrFrozen) {
		t.Errorf("Expected ErrFrozen, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 unit after rejected Put, got %d", c.Len())
	}
}

func TestCachePutRejectsUnnamed(t *testing.T) {
	c := New(symbols.NewTable())
	if err := c.Put(model.NewUnit(symbols.None, 0)); !errors.Is(err, ErrCorruptedMetadata) {
		t.Errorf("Expected ErrCorruptedMetadata, got %v", err)
	}
}

func TestResolverPrefersNew(t *testing.T) {
	table := symbols.NewTable()
	oldCache, newCache := New(table), New(table)

	oldA := newUnit(t, table, "a.A")
	newA := model.NewUnit(oldA.Name, model.FlagPublic|model.FlagFinal)
	b := newUnit(t, table, "a.B")
	_ = oldCache.Put(oldA)
	_ = oldCache.Put(b)
	_ = newCache.Put(newA)

	r := NewResolver(newCache, oldCache)

	if got, _ := r.Current(oldA.Name); got != newA {
		t.Error("Expected new record for recompiled unit")
	}
	if got, _ := r.Current(b.Name); got != b {
		t.Error("Expected old record for unit not recompiled")
	}
	if !r.Recompiled(oldA.Name) || r.Recompiled(b.Name) {
		t.Error("Recompiled reported the wrong units")
	}
	if _, err := r.Current(table.Intern("x.Unknown")); !errors.Is(err, ErrUnitUnknown) {
		t.Errorf("Expected ErrUnitUnknown, got %v", err)
	}
}

func TestResolverSubclassesUnion(t *testing.T) {
	table := symbols.NewTable()
	oldCache, newCache := New(table), New(table)
	b, c, d := table.Intern("a.B"), table.Intern("a.C"), table.Intern("a.D")

	oldA := newUnit(t, table, "a.A")
	oldA.Subclasses = []symbols.Symbol{b, c}
	newA := newUnit(t, table, "a.A")
	newA.Subclasses = []symbols.Symbol{c, d}
	_ = oldCache.Put(oldA)
	_ = newCache.Put(newA)

	subs, err := NewResolver(newCache, oldCache).Subclasses(oldA.Name)
	if err != nil {
		t.Fatal(err)
	}
	want := []symbols.Symbol{b, c, d}
	if !reflect.DeepEqual(subs, want) {
		t.Errorf("Expected %v, got %v", want, subs)
	}
}

func TestResolverBackDependenciesFromOld(t *testing.T) {
	table := symbols.NewTable()
	oldCache, newCache := New(table), New(table)

	oldA := newUnit(t, table, "a.A")
	oldA.BackDependencies = []*model.Dependency{model.NewDependency(table.Intern("a.User"), oldA.Name)}
	newA := newUnit(t, table, "a.A")
	_ = oldCache.Put(oldA)
	_ = newCache.Put(newA)

	deps, err := NewResolver(newCache, oldCache).BackDependencies(oldA.Name)
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 1 {
		t.Errorf("Expected back-dependencies from old cache, got %d", len(deps))
	}
}
