package cache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ritzau/classdeps/pkg/model"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Cache is a keyed store of unit records. Records are replaced wholesale,
// never patched. A frozen cache is read-only and safe for concurrent readers.
type Cache struct {
	mu     sync.RWMutex
	units  map[symbols.Symbol]*model.Unit
	frozen bool
	table  *symbols.Table
}

// New creates an empty cache whose records are interned in table
func New(table *symbols.Table) *Cache {
	return &Cache{
		units: make(map[symbols.Symbol]*model.Unit),
		table: table,
	}
}

// Table returns the symbol table the records refer to
func (c *Cache) Table() *symbols.Table {
	return c.table
}

// Put stores u, replacing any previous record for the same unit
func (c *Cache) Put(u *model.Unit) error {
	if u == nil || !u.Name.Valid() {
		return fmt.Errorf("%w: unit record without a name", ErrCorruptedMetadata)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrFrozen
	}
	c.units[u.Name] = u
	return nil
}

// Freeze makes the cache read-only
func (c *Cache) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Frozen reports whether Freeze has been called
func (c *Cache) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Unit returns the record for id, or ErrUnitUnknown
func (c *Cache) Unit(id symbols.Symbol) (*model.Unit, error) {
	c.mu.RLock()
	u, ok := c.units[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnitUnknown, c.table.Name(id))
	}
	return u, nil
}

// Contains reports whether the cache holds a record for id
func (c *Cache) Contains(id symbols.Symbol) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.units[id]
	return ok
}

// BackDependencies returns the edges of units that depend on id. A unit
// without dependents yields an empty slice; an unknown unit is ErrUnitUnknown.
func (c *Cache) BackDependencies(id symbols.Symbol) ([]*model.Dependency, error) {
	u, err := c.Unit(id)
	if err != nil {
		return nil, err
	}
	return u.BackDependencies, nil
}

// Subclasses returns the known direct subclasses and subinterfaces of id
func (c *Cache) Subclasses(id symbols.Symbol) ([]symbols.Symbol, error) {
	u, err := c.Unit(id)
	if err != nil {
		return nil, err
	}
	return u.Subclasses, nil
}

// Members returns the fields and methods declared directly on id
func (c *Cache) Members(id symbols.Symbol) ([]model.Member, error) {
	u, err := c.Unit(id)
	if err != nil {
		return nil, err
	}
	return u.Members(), nil
}

// FindMethodBySignature returns the method of id matching sig, or nil
func (c *Cache) FindMethodBySignature(id symbols.Symbol, sig model.MethodSig) (*model.Method, error) {
	u, err := c.Unit(id)
	if err != nil {
		return nil, err
	}
	return u.MethodBySig(sig), nil
}

// FindMethodsByName returns every method of id named name
func (c *Cache) FindMethodsByName(id, name symbols.Symbol) ([]*model.Method, error) {
	u, err := c.Unit(id)
	if err != nil {
		return nil, err
	}
	return u.MethodsByName(name), nil
}

// FindFieldByName returns the field of id named name, or nil
func (c *Cache) FindFieldByName(id, name symbols.Symbol) (*model.Field, error) {
	u, err := c.Unit(id)
	if err != nil {
		return nil, err
	}
	return u.FieldByName(name), nil
}

// Units returns the ids of all cached units, sorted by id
func (c *Cache) Units() []symbols.Symbol {
	c.mu.RLock()
	ids := make([]symbols.Symbol, 0, len(c.units))
	for id := range c.units {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of cached units
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}
