package driver

import (
	"sync"

	"github.com/ritzau/classdeps/pkg/symbols"
)

// MarkSet is the set of units that need recompilation. It is safe for
// concurrent use; units are only ever added.
type MarkSet struct {
	mu    sync.RWMutex
	marks map[symbols.Symbol]struct{}
	order []symbols.Symbol
}

// NewMarkSet creates an empty mark set
func NewMarkSet() *MarkSet {
	return &MarkSet{marks: make(map[symbols.Symbol]struct{})}
}

// Mark adds id and reports whether it was not marked before
func (m *MarkSet) Mark(id symbols.Symbol) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.marks[id]; ok {
		return false
	}
	m.marks[id] = struct{}{}
	m.order = append(m.order, id)
	return true
}

func (m *MarkSet) IsMarked(id symbols.Symbol) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.marks[id]
	return ok
}

func (m *MarkSet) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Units returns the marked units in the order they were first marked
func (m *MarkSet) Units() []symbols.Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	units := make([]symbols.Symbol, len(m.order))
	copy(units, m.order)
	return units
}
