// Package handlers wires the domain services into the operations the
// CLI exposes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/rob-core/internal/domain/entities"
	"github.com/ersonp/rob-core/internal/domain/ports"
	"github.com/ersonp/rob-core/internal/domain/services"
)

// UpdateHandler runs one reconciliation pass: it discovers pending
// snapshot batches, resolves and reviews their finding places, assigns
// record identities, merges them into the historical table, and commits
// once at the end. A run either commits fully or leaves durable state
// untouched; changelog markers are deleted only after the commit.
type UpdateHandler struct {
	store    ports.Store
	source   ports.BatchSource
	reviewer ports.Reviewer
	logger   *slog.Logger
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(store ports.Store, source ports.BatchSource, reviewer ports.Reviewer, logger *slog.Logger) *UpdateHandler {
	return &UpdateHandler{store: store, source: source, reviewer: reviewer, logger: logger}
}

// UpdateOptions controls update behavior.
type UpdateOptions struct {
	// SaveCopy writes a timestamped copy of the historical table
	// alongside the authoritative one before committing.
	SaveCopy bool
}

// UpdateResult summarizes one update run.
type UpdateResult struct {
	RunID      string
	Batches    int
	Merged     int
	Skipped    int
	Added      int
	Superseded int
	Committed  bool
}

// Handle executes a full update run.
func (h *UpdateHandler) Handle(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	result := &UpdateResult{RunID: uuid.New().String()}
	logger := h.logger.With("run_id", result.RunID)

	changelogs, err := h.source.Changelogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing changelogs: %w", err)
	}
	result.Batches = len(changelogs)
	if len(changelogs) == 0 {
		logger.Info("no pending batches")
		return result, nil
	}

	resolver := services.NewLocationResolver(h.store)
	if err := resolver.Load(ctx); err != nil {
		return nil, err
	}

	history, err := h.store.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading historical table: %w", err)
	}

	identifier := services.NewRecordIdentifier()
	reconciler := services.NewHistoryReconciler()

	audit := []entities.AuditEntry{h.auditEntry(result.RunID, entities.AuditRunStarted, "", fmt.Sprintf("%d pending batches", len(changelogs)))}
	var processed []string

	for _, changelog := range changelogs {
		merge, err := h.processBatch(ctx, changelog, resolver, identifier, reconciler, history)
		if errors.Is(err, entities.ErrNoChanges) {
			logger.Info("batch already reconciled", "changelog", changelog)
			audit = append(audit, h.auditEntry(result.RunID, entities.AuditBatchSkipped, "", changelog))
			processed = append(processed, changelog)
			result.Skipped++
			continue
		}
		if err != nil {
			var dup *entities.DuplicateIdentityError
			if errors.As(err, &dup) {
				logger.Error("duplicate record identity",
					"changelog", changelog,
					"record_id", dup.RecordID,
					"finding_place", dup.FindingPlace,
					"admission_date", dup.AdmissionDate.Format("2006-01-02"),
					"species", dup.Species)
			}
			return nil, fmt.Errorf("processing batch %s: %w", changelog, err)
		}

		history = merge.Records
		for _, recordID := range merge.AddedIDs {
			audit = append(audit, h.auditEntry(result.RunID, entities.AuditRecordAdded, recordID, changelog))
		}
		for _, recordID := range merge.SupersededIDs {
			audit = append(audit, h.auditEntry(result.RunID, entities.AuditRecordSuperseded, recordID, changelog))
		}
		processed = append(processed, changelog)
		result.Merged++
		result.Added += len(merge.AddedIDs)
		result.Superseded += len(merge.SupersededIDs)
		logger.Info("batch merged",
			"changelog", changelog,
			"added", len(merge.AddedIDs),
			"superseded", len(merge.SupersededIDs))
	}

	if result.Merged > 0 {
		if opts.SaveCopy {
			if err := h.store.SaveHistoryCopy(ctx, history, time.Now()); err != nil {
				return nil, &entities.PersistenceError{Op: "historical table copy", Err: err}
			}
		}
		if err := h.store.SaveHistory(ctx, history); err != nil {
			// Markers stay in place so the batches are retried.
			return nil, &entities.PersistenceError{Op: "historical table", Err: err}
		}
		result.Committed = true
		audit = append(audit, h.auditEntry(result.RunID, entities.AuditRunCommitted, "", fmt.Sprintf("%d rows", len(history))))
	}

	if err := h.store.AppendAudit(ctx, audit); err != nil {
		logger.Warn("appending audit trail failed", "error", err)
	}

	for _, changelog := range processed {
		if err := h.source.Delete(ctx, changelog); err != nil {
			// The batch replays as a no-op on the next run.
			logger.Warn("deleting changelog marker failed", "changelog", changelog, "error", err)
		}
	}

	return result, nil
}

// processBatch takes one raw batch through resolution, review,
// identification, and reconciliation against the in-memory table.
func (h *UpdateHandler) processBatch(
	ctx context.Context,
	changelog string,
	resolver *services.LocationResolver,
	identifier *services.RecordIdentifier,
	reconciler *services.HistoryReconciler,
	history []entities.HistoricalRecord,
) (*services.ReconcileResult, error) {
	batch, err := h.source.Fetch(ctx, changelog)
	if err != nil {
		return nil, err
	}
	for i := range batch.Records {
		batch.Records[i].SnapshotCreatedAt = batch.CreatedAt
	}

	resolved, err := resolver.ResolveBatch(batch.Records)
	if err != nil {
		return nil, err
	}

	// The pipeline blocks here until the reviewer confirms or
	// corrects the proposed mappings.
	reviewed, err := h.reviewer.Review(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("reviewing proposed mappings: %w", err)
	}

	if err := resolver.AppendConfirmed(ctx, confirmedEntries(reviewed)); err != nil {
		return nil, &entities.PersistenceError{Op: "catalogue", Err: err}
	}

	identified, err := identifier.IdentifyBatch(reviewed)
	if err != nil {
		return nil, err
	}

	return reconciler.Reconcile(identified, history)
}

// confirmedEntries extracts the distinct confirmed finding places of a
// reviewed batch.
func confirmedEntries(reviewed []entities.ResolvedRecord) []entities.CatalogueEntry {
	entries := make([]entities.CatalogueEntry, 0, len(reviewed))
	for _, record := range reviewed {
		if record.MappedFindingPlace == "" {
			continue
		}
		entries = append(entries, entities.CatalogueEntry{
			Name: record.MappedFindingPlace,
			Lat:  record.Lat,
			Lon:  record.Lon,
		})
	}
	return entries
}

func (h *UpdateHandler) auditEntry(runID string, action entities.AuditAction, recordID, detail string) entities.AuditEntry {
	return entities.AuditEntry{
		RunID:     runID,
		Action:    action,
		RecordID:  recordID,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}
