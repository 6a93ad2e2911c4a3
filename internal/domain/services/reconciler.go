package services

import (
	"time"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// HistoryReconciler merges a freshly identified batch into the existing
// historical table using slowly-changing-dimension type-2 semantics:
// a status transition soft-deletes the current row of a record ID and
// appends a new current row; rows are never removed or mutated beyond
// the soft-delete flag.
type HistoryReconciler struct{}

// NewHistoryReconciler creates a HistoryReconciler.
func NewHistoryReconciler() *HistoryReconciler {
	return &HistoryReconciler{}
}

// ReconcileResult describes the outcome of one merge.
type ReconcileResult struct {
	// Records is the full table after the merge: prior rows,
	// soft-delete updates, and appended rows.
	Records []entities.HistoricalRecord

	// AddedIDs lists the record IDs appended as new current rows.
	AddedIDs []string

	// SupersededIDs lists the record IDs whose prior current row was
	// soft-deleted by this merge.
	SupersededIDs []string
}

// Reconcile merges batch into existing. Records whose content hash is
// already present anywhere in the table (current or superseded) are
// skipped; if nothing remains, ErrNoChanges is returned. True
// duplicates within the batch (same content hash) are collapsed to the
// one with the earliest snapshot timestamp, which guards against
// reprocessing the same logical change twice in one run.
func (r *HistoryReconciler) Reconcile(batch []entities.IdentifiedRecord, existing []entities.HistoricalRecord) (*ReconcileResult, error) {
	knownHashes := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		knownHashes[row.ContentHash] = struct{}{}
	}

	// Partition the batch into already-known rows and candidates,
	// collapsing in-batch content-hash duplicates.
	var candidates []entities.IdentifiedRecord
	candidateIdx := make(map[string]int)
	for _, record := range batch {
		if _, known := knownHashes[record.ContentHash]; known {
			continue
		}
		if idx, dup := candidateIdx[record.ContentHash]; dup {
			if record.SnapshotCreatedAt.Before(candidates[idx].SnapshotCreatedAt) {
				candidates[idx] = record
			}
			continue
		}
		candidateIdx[record.ContentHash] = len(candidates)
		candidates = append(candidates, record)
	}

	if len(candidates) == 0 {
		return nil, entities.ErrNoChanges
	}

	result := &ReconcileResult{
		Records: append([]entities.HistoricalRecord(nil), existing...),
	}

	currentByID := make(map[string]int, len(result.Records))
	for idx, row := range result.Records {
		if row.Current() {
			currentByID[row.RecordID] = idx
		}
	}

	now := timeNow()
	for _, candidate := range candidates {
		if idx, ok := currentByID[candidate.RecordID]; ok {
			// Status transition: flag the deprecated row.
			result.Records[idx].IsDeleted = true
			result.Records[idx].UpdatedAt = now
			result.SupersededIDs = append(result.SupersededIDs, candidate.RecordID)
		} else {
			result.AddedIDs = append(result.AddedIDs, candidate.RecordID)
		}

		result.Records = append(result.Records, entities.HistoricalRecord{
			IdentifiedRecord: candidate,
			IsDeleted:        false,
			UpdatedAt:        now,
		})
		currentByID[candidate.RecordID] = len(result.Records) - 1
	}

	return result, nil
}
