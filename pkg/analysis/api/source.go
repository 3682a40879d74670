package api

import (
	"context"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Source supplies one snapshot of unit metadata, e.g. a file written by
// the extraction step after a build.
type Source interface {
	// Name identifies the source in logs, e.g. its path
	Name() string

	// Load builds a frozen cache, interning into table.
	// It should respect the context for cancellation.
	Load(ctx context.Context, table *symbols.Table) (*cache.Cache, error)
}
