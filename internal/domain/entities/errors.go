package entities

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across the reconciliation pipeline.
var (
	// ErrNoCatalogue means the resolver has no catalogued finding
	// places to match against. Fatal, aborts the run.
	ErrNoCatalogue = errors.New("no catalogued finding places available")

	// ErrNoChanges signals that a batch contains nothing new with
	// respect to the historical table. Normal early-exit outcome,
	// not a failure.
	ErrNoChanges = errors.New("no changes with respect to the historical table")

	// ErrSourceUnavailable means the upstream producer of raw
	// batches could not deliver data. The run aborts without
	// touching historical state.
	ErrSourceUnavailable = errors.New("raw batch source unavailable")
)

// DuplicateIdentityError reports a record identity collision within one
// batch. This is an internal invariant violation and aborts the run.
type DuplicateIdentityError struct {
	RecordID      string
	FindingPlace  string
	AdmissionDate time.Time
	Species       string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("duplicate record identity %s for (%s, %s, %s)",
		e.RecordID, e.FindingPlace, e.AdmissionDate.Format("2006-01-02"), e.Species)
}

// PersistenceError wraps a failure to write durable state. The run
// aborts and changelog markers are retained so the batch is retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
