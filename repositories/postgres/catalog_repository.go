package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/repositories"
	"github.com/upb/cascade-control-plane/services/catalog"
	"go.uber.org/zap"
)

// CatalogRepository implements the repositories.CatalogRepository interface.
// The catalog table is owned by the registration service; this side only reads.
type CatalogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB, logger *zap.Logger) repositories.CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// ListEntries returns every catalog entry in registration order
func (r *CatalogRepository) ListEntries(ctx context.Context) ([]catalog.Entry, error) {
	query := `
		SELECT name, endpoint, transport, capability_tags
		FROM service_catalog
		ORDER BY registered_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var entry catalog.Entry
		var transport string
		var tags pq.StringArray

		if err := rows.Scan(&entry.Name, &entry.Endpoint, &transport, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}

		entry.Transport = models.Transport(transport)
		entry.CapabilityTags = tags

		if !entry.Transport.Valid() {
			r.logger.Warn("skipping catalog entry with unknown transport",
				zap.String("name", entry.Name),
				zap.String("transport", transport))
			continue
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog entries: %w", err)
	}

	r.logger.Debug("loaded catalog entries", zap.Int("count", len(entries)))
	return entries, nil
}
