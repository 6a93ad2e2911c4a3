// Package ports defines the interfaces between the domain and its
// infrastructure collaborators.
package ports

import (
	"context"
	"time"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// Store persists the catalogued finding places and the historical
// record table. Implementations must commit table writes atomically:
// concurrent readers observe either the pre-run or the fully committed
// post-run table, never an intermediate state.
type Store interface {
	// LoadCatalogue reads the full finding-place catalogue.
	LoadCatalogue(ctx context.Context) ([]entities.CatalogueEntry, error)

	// SaveCatalogue rewrites the catalogue in full.
	SaveCatalogue(ctx context.Context, catalogue []entities.CatalogueEntry) error

	// LoadHistory reads the full historical record table.
	LoadHistory(ctx context.Context) ([]entities.HistoricalRecord, error)

	// SaveHistory atomically replaces the historical record table.
	// Rows are written sorted by (updated_at, admission_date).
	SaveHistory(ctx context.Context, records []entities.HistoricalRecord) error

	// SaveHistoryCopy writes a timestamped copy of the historical
	// table without touching the authoritative one.
	SaveHistoryCopy(ctx context.Context, records []entities.HistoricalRecord, at time.Time) error

	// AppendAudit appends reconciliation actions to the audit trail.
	AppendAudit(ctx context.Context, audit []entities.AuditEntry) error

	// Close releases any resources held by the store.
	Close() error
}
