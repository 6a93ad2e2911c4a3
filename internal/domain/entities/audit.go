package entities

import "time"

// AuditAction categorizes reconciliation events in the audit trail.
type AuditAction string

// Actions recorded during an update run.
const (
	AuditRunStarted       AuditAction = "run_started"
	AuditRecordAdded      AuditAction = "record_added"
	AuditRecordSuperseded AuditAction = "record_superseded"
	AuditBatchSkipped     AuditAction = "batch_skipped"
	AuditRunCommitted     AuditAction = "run_committed"
)

// AuditEntry represents a logged reconciliation action.
type AuditEntry struct {
	RunID     string      `json:"run_id"`
	Action    AuditAction `json:"action"`
	RecordID  string      `json:"record_id,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
