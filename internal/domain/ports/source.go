package ports

import (
	"context"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// BatchSource discovers and delivers raw snapshot batches produced by
// the scraping collaborator. Each unreconciled batch is announced by a
// changelog marker; the marker is deleted only after the batch has been
// merged and durably persisted, so processing is at-least-once and an
// already-merged batch replays as a no-op.
type BatchSource interface {
	// Changelogs returns the pending changelog markers, oldest first.
	Changelogs(ctx context.Context) ([]string, error)

	// Fetch retrieves the raw batch announced by the given marker.
	// Returns an error wrapping entities.ErrSourceUnavailable when
	// the batch cannot be delivered.
	Fetch(ctx context.Context, changelog string) (entities.RawBatch, error)

	// Delete removes a changelog marker after its batch has been
	// durably merged.
	Delete(ctx context.Context, changelog string) error
}
