package cache

import "errors"

var (
	// ErrUnitUnknown is returned for a unit present in neither cache, e.g. a
	// library type. It is never fatal: callers treat the edge as carrying
	// no information and do not propagate through it.
	ErrUnitUnknown = errors.New("unit unknown")

	// ErrCorruptedMetadata signals a violated invariant in the cached facts.
	// It aborts the round; a partial mark set would under-compile.
	ErrCorruptedMetadata = errors.New("corrupted metadata")

	// ErrFrozen is returned by Put on a cache that has been frozen for a round
	ErrFrozen = errors.New("cache is frozen")
)
