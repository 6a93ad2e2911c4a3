package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/rob-core/internal/domain/entities"
	"github.com/ersonp/rob-core/internal/domain/ports"
	"github.com/ersonp/rob-core/internal/domain/services"
)

// ViewsHandler derives the three dashboard views over a date window
// from a stable snapshot of the historical table. It is read-only and
// safe to call concurrently with a reconciliation run elsewhere.
type ViewsHandler struct {
	store ports.Store
}

// NewViewsHandler creates a new views handler.
func NewViewsHandler(store ports.Store) *ViewsHandler {
	return &ViewsHandler{store: store}
}

// ViewsResult bundles the three aggregation views for one window.
type ViewsResult struct {
	Breakdown entities.StatusBreakdown
	Weekly    []entities.WeeklyAdmissionRow
	Locations []entities.LocationCountRow
}

// Handle loads the historical table once and computes all three views.
// An empty or all-zero result is valid output, not an error.
func (h *ViewsHandler) Handle(ctx context.Context, window entities.Window) (*ViewsResult, error) {
	history, err := h.store.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading historical table: %w", err)
	}

	return &ViewsResult{
		Breakdown: services.StatusBreakdown(history, window),
		Weekly:    services.WeeklyAdmissions(history, window),
		Locations: services.LocationCounts(history, window),
	}, nil
}
