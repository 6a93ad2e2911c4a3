package ports

import (
	"context"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// Reviewer is the human-in-the-loop boundary for proposed finding-place
// mappings. The pipeline blocks until Review returns: the reviewer may
// hand back the proposal unchanged (auto-accept), or return corrected
// records whose mapped places and coordinates are then treated as
// confirmed and appended to the catalogue.
type Reviewer interface {
	Review(ctx context.Context, proposed []entities.ResolvedRecord) ([]entities.ResolvedRecord, error)
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc func(ctx context.Context, proposed []entities.ResolvedRecord) ([]entities.ResolvedRecord, error)

// Review calls f.
func (f ReviewerFunc) Review(ctx context.Context, proposed []entities.ResolvedRecord) ([]entities.ResolvedRecord, error) {
	return f(ctx, proposed)
}
