package repositories

import (
	"context"

	"github.com/upb/cascade-control-plane/services/catalog"
)

// CatalogRepository loads the service catalog from its externally owned
// source. The dispatch core only reads catalog data; registration and
// lifecycle belong to whoever owns the source.
type CatalogRepository interface {
	// ListEntries returns every catalog entry in registration order
	ListEntries(ctx context.Context) ([]catalog.Entry, error)
}
