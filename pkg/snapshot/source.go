package snapshot

import (
	"context"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// FileSource loads a snapshot document from disk
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Load(ctx context.Context, table *symbols.Table) (*cache.Cache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.Path, table)
}

// DocumentSource serves an in-memory document
type DocumentSource struct {
	Label    string
	Document *Document
}

func (s DocumentSource) Name() string { return s.Label }

func (s DocumentSource) Load(ctx context.Context, table *symbols.Table) (*cache.Cache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Build(s.Document, table)
}
