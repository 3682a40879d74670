package cycles

import (
	"reflect"
	"testing"

	"github.com/ritzau/classdeps/pkg/graph"
	"github.com/ritzau/classdeps/pkg/symbols"
)

func TestFindHierarchyCycles_NoCycles(t *testing.T) {
	table := symbols.NewTable()
	h := graph.NewHierarchy()

	// C extends B extends A
	h.AddSupertype(table.Intern("C"), table.Intern("B"))
	h.AddSupertype(table.Intern("B"), table.Intern("A"))

	cycles := FindHierarchyCycles(h)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles, but found %d", len(cycles))
	}
}

func TestFindHierarchyCycles_SimpleCycle(t *testing.T) {
	table := symbols.NewTable()
	h := graph.NewHierarchy()

	// A extends B, B extends A
	h.AddSupertype(table.Intern("A"), table.Intern("B"))
	h.AddSupertype(table.Intern("B"), table.Intern("A"))

	cycles := FindHierarchyCycles(h)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}
	if got := cycles[0].Names(table); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Expected cycle [A B], got %v", got)
	}
}

func TestFindHierarchyCycles_ThreeUnitCycle(t *testing.T) {
	table := symbols.NewTable()
	h := graph.NewHierarchy()

	// A -> B -> C -> A, plus an unrelated D -> A
	h.AddSupertype(table.Intern("A"), table.Intern("B"))
	h.AddSupertype(table.Intern("B"), table.Intern("C"))
	h.AddSupertype(table.Intern("C"), table.Intern("A"))
	h.AddSupertype(table.Intern("D"), table.Intern("A"))

	cycles := FindHierarchyCycles(h)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}
	if len(cycles[0].Units) != 3 {
		t.Errorf("Expected cycle of length 3, got %d", len(cycles[0].Units))
	}
}

func TestFindHierarchyCycles_SelfLoop(t *testing.T) {
	table := symbols.NewTable()
	h := graph.NewHierarchy()

	h.AddSupertype(table.Intern("A"), table.Intern("A"))

	cycles := FindHierarchyCycles(h)

	if len(cycles) != 1 || len(cycles[0].Units) != 1 {
		t.Fatalf("Expected one self loop, got %v", cycles)
	}
}
