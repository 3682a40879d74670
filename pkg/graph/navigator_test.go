package graph

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// hierarchyFixture builds an old cache from "sub -> supers" pairs. The first
// super of each entry is the superclass, the rest are interfaces. Subclass
// lists are derived. An empty superclass name means none.
func hierarchyFixture(t *testing.T, table *symbols.Table, edges map[string][]string) *cache.Resolver {
	t.Helper()
	units := make(map[symbols.Symbol]*model.Unit)
	get := func(name string) *model.Unit {
		id := table.Intern(name)
		if u, ok := units[id]; ok {
			return u
		}
		u := model.NewUnit(id, model.FlagPublic)
		units[id] = u
		return u
	}
	for sub, supers := range edges {
		u := get(sub)
		for i, name := range supers {
			if name == "" {
				continue
			}
			s := get(name)
			if i == 0 {
				u.Super = s.Name
			} else {
				u.Interfaces = append(u.Interfaces, s.Name)
			}
			s.Subclasses = append(s.Subclasses, u.Name)
		}
	}
	oldCache := cache.New(table)
	for _, u := range units {
		if err := oldCache.Put(u); err != nil {
			t.Fatal(err)
		}
	}
	return cache.NewResolver(cache.New(table), oldCache)
}

func collect(t *testing.T, table *symbols.Table, walk func(Visitor) error) []string {
	t.Helper()
	var names []string
	err := walk(func(id symbols.Symbol) (bool, error) {
		names = append(names, table.Name(id))
		return true, nil
	})
	if err != nil {
		t.Fatalf("walk returned error: %v", err)
	}
	sort.Strings(names)
	return names
}

func TestWalkSuperclasses(t *testing.T) {
	table := symbols.NewTable()
	r := hierarchyFixture(t, table, map[string][]string{
		"C": {"B", "I"},
		"B": {"A"},
		"I": {"", "J"},
	})
	nav := NewNavigator(r)
	c := table.Intern("C")

	got := collect(t, table, func(v Visitor) error { return nav.WalkSuperclasses(c, v) })
	want := []string{"A", "B", "I", "J"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	got = collect(t, table, func(v Visitor) error { return nav.WalkSuperInterfaces(c, v) })
	want = []string{"I", "J"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected interfaces %v, got %v", want, got)
	}
}

func TestWalkSubclassesPrune(t *testing.T) {
	table := symbols.NewTable()
	r := hierarchyFixture(t, table, map[string][]string{
		"B": {"A"},
		"C": {"B"},
		"D": {"A"},
	})
	nav := NewNavigator(r)
	b := table.Intern("B")

	var visited []string
	err := nav.WalkSubclasses(table.Intern("A"), func(id symbols.Symbol) (bool, error) {
		visited = append(visited, table.Name(id))
		return id != b, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(visited)
	if !reflect.DeepEqual(visited, []string{"B", "D"}) {
		t.Errorf("Expected pruning below B, got %v", visited)
	}
}

func TestWalkDiamondVisitsOnce(t *testing.T) {
	table := symbols.NewTable()
	// D implements both I and J, which both extend K
	r := hierarchyFixture(t, table, map[string][]string{
		"D": {"Object", "I", "J"},
		"I": {"", "K"},
		"J": {"", "K"},
	})
	nav := NewNavigator(r)

	counts := make(map[string]int)
	_ = nav.WalkSuperclasses(table.Intern("D"), func(id symbols.Symbol) (bool, error) {
		counts[table.Name(id)]++
		return true, nil
	})
	if counts["K"] != 1 {
		t.Errorf("Expected K visited once, got %d", counts["K"])
	}

	// A second walk owns a fresh visited set
	counts = make(map[string]int)
	_ = nav.WalkSuperclasses(table.Intern("I"), func(id symbols.Symbol) (bool, error) {
		counts[table.Name(id)]++
		return true, nil
	})
	if counts["K"] != 1 {
		t.Errorf("Expected K reachable from a second walk, got %d", counts["K"])
	}
}

func TestWalkCycleTerminates(t *testing.T) {
	table := symbols.NewTable()
	r := hierarchyFixture(t, table, map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})
	nav := NewNavigator(r)

	counts := make(map[string]int)
	err := nav.WalkSuperclasses(table.Intern("A"), func(id symbols.Symbol) (bool, error) {
		counts[table.Name(id)]++
		return true, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for name, n := range counts {
		if n > 1 {
			t.Errorf("Expected %s visited at most once, got %d", name, n)
		}
	}
	if counts["B"] != 1 {
		t.Errorf("Expected B visited, got %v", counts)
	}
}

func TestWalkSelfSuper(t *testing.T) {
	table := symbols.NewTable()
	r := hierarchyFixture(t, table, map[string][]string{"A": {"A"}})
	nav := NewNavigator(r)

	visited := collect(t, table, func(v Visitor) error { return nav.WalkSuperclasses(table.Intern("A"), v) })
	if len(visited) != 0 {
		t.Errorf("Expected a self supertype to be skipped, got %v", visited)
	}
}

func TestWalkUnknownUnit(t *testing.T) {
	table := symbols.NewTable()
	r := hierarchyFixture(t, table, map[string][]string{"B": {"java.lang.Object"}})
	nav := NewNavigator(r)

	visited := collect(t, table, func(v Visitor) error { return nav.WalkSubclasses(table.Intern("x.External"), v) })
	if len(visited) != 0 {
		t.Errorf("Expected nothing below an unknown unit, got %v", visited)
	}
}

func TestWalkVisitorError(t *testing.T) {
	table := symbols.NewTable()
	r := hierarchyFixture(t, table, map[string][]string{"B": {"A"}, "C": {"B"}})
	nav := NewNavigator(r)
	boom := errors.New("boom")

	err := nav.WalkSuperclasses(table.Intern("C"), func(symbols.Symbol) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected visitor error, got %v", err)
	}
}

func TestBuildHierarchy(t *testing.T) {
	table := symbols.NewTable()
	r := hierarchyFixture(t, table, map[string][]string{
		"B": {"A", "I"},
		"S": {"S"},
	})
	h := BuildHierarchy(r.Old)

	supers := h.Supertypes(table.Intern("B"))
	want := []symbols.Symbol{table.Intern("A"), table.Intern("I")}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	if !reflect.DeepEqual(supers, want) {
		t.Errorf("Expected supertypes %v, got %v", want, supers)
	}
	if len(h.SelfLoops) != 1 || h.SelfLoops[0] != table.Intern("S") {
		t.Errorf("Expected S recorded as self loop, got %v", h.SelfLoops)
	}
}
