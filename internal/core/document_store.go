package core

import (
	"context"

	"lostfound/internal/blob"
	"lostfound/internal/infra/persistence/document"
	"lostfound/internal/infra/persistence/memory"
)

// NewDocumentStore constructs a store persisting one snapshot document in blobs.
func NewDocumentStore(ctx context.Context, blobs blob.Store, engine *RulesEngine, opts ...memory.Option) (*document.Store, error) {
	return document.NewStore(ctx, blobs, engine, opts...)
}
