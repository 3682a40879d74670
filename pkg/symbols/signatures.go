package symbols

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSignatureCacheSize is used when the configured size is not positive
const DefaultSignatureCacheSize = 4096

// Signatures memoizes parsed method descriptors by descriptor symbol.
// Overload checks parse the same descriptors for every back-dependency of
// every changed unit, so the parse results are kept in a bounded LRU.
type Signatures struct {
	table *Table
	cache *lru.Cache[Symbol, MethodType]
}

// NewSignatures creates a signature cache over table holding at most size entries
func NewSignatures(table *Table, size int) (*Signatures, error) {
	if size <= 0 {
		size = DefaultSignatureCacheSize
	}
	cache, err := lru.New[Symbol, MethodType](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature cache: %w", err)
	}
	return &Signatures{table: table, cache: cache}, nil
}

// Table returns the symbol table the descriptors are resolved against
func (s *Signatures) Table() *Table {
	return s.table
}

// Method returns the parsed form of the method descriptor desc
func (s *Signatures) Method(desc Symbol) (MethodType, error) {
	if mt, ok := s.cache.Get(desc); ok {
		return mt, nil
	}
	text, err := s.table.Text(desc)
	if err != nil {
		return MethodType{}, err
	}
	mt, err := ParseMethodDescriptor(text)
	if err != nil {
		return MethodType{}, err
	}
	s.cache.Add(desc, mt)
	return mt, nil
}

// Params returns the parameter descriptors of desc
func (s *Signatures) Params(desc Symbol) ([]string, error) {
	mt, err := s.Method(desc)
	if err != nil {
		return nil, err
	}
	return mt.Params, nil
}

// Len returns the number of cached descriptors
func (s *Signatures) Len() int {
	return s.cache.Len()
}
