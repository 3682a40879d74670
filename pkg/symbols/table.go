package symbols

import (
	"fmt"
	"sync"
)

// Symbol is an interned string: qualified unit names, member names,
// descriptors and generic signatures all compare by integer.
type Symbol int32

// None marks an absent value (no supertype, no generic signature, ...).
const None Symbol = -1

// Valid reports whether s refers to an interned value.
func (s Symbol) Valid() bool {
	return s >= 0
}

// Table maps text to symbols and back. Equal text always yields the same
// symbol for the lifetime of the table. Safe for concurrent use.
type Table struct {
	mu  sync.RWMutex
	ids map[string]Symbol
	rev []string
}

// NewTable creates an empty symbol table
func NewTable() *Table {
	return &Table{
		ids: make(map[string]Symbol),
	}
}

// Intern returns the symbol for text, allocating one on first sight.
func (t *Table) Intern(text string) Symbol {
	t.mu.RLock()
	id, ok := t.ids[text]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[text]; ok {
		return id
	}
	id = Symbol(len(t.rev))
	t.rev = append(t.rev, text)
	t.ids[text] = id
	return id
}

// InternOptional interns text, mapping the empty string to None.
func (t *Table) InternOptional(text string) Symbol {
	if text == "" {
		return None
	}
	return t.Intern(text)
}

// Lookup returns the symbol for text without interning it.
func (t *Table) Lookup(text string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.ids[text]
	return id, ok
}

// Text returns the text behind s. An id the table never handed out is an
// error: it means a record was built against a different table.
func (t *Table) Text(s Symbol) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s < 0 || int(s) >= len(t.rev) {
		return "", fmt.Errorf("symbol %d out of range (table has %d entries)", s, len(t.rev))
	}
	return t.rev[s], nil
}

// Name is Text for log and trace output: unknown symbols render as
// "<none>" or "#<id>" instead of failing.
func (t *Table) Name(s Symbol) string {
	if s == None {
		return "<none>"
	}
	text, err := t.Text(s)
	if err != nil {
		return fmt.Sprintf("#%d", s)
	}
	return text
}

// Len returns the number of interned values
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rev)
}
