// Package entities contains core domain data structures.
package entities

import "time"

// Status represents the rehabilitation state of a rescued animal.
type Status string

// Known animal statuses as reported by the rescue station.
const (
	StatusInRehabilitation Status = "in_rehabilitation"
	StatusReleased         Status = "released"
	StatusDeceased         Status = "deceased"
)

// AllStatuses lists every known status in display order.
var AllStatuses = []Status{StatusInRehabilitation, StatusReleased, StatusDeceased}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusInRehabilitation, StatusReleased, StatusDeceased:
		return true
	}
	return false
}

// RawRecord is one tabular row extracted from a scraped snapshot.
// FindingPlace may be empty (missing) or misspelled; it is resolved
// against the catalogue before the record becomes authoritative.
// RawRecords are ephemeral and never persisted directly.
type RawRecord struct {
	FindingPlace      string
	AdmissionDate     time.Time
	Species           string
	Status            Status
	SnapshotCreatedAt time.Time
}

// RawBatch groups the raw records of one snapshot together with the
// changelog marker that identifies the snapshot as not yet reconciled.
type RawBatch struct {
	Changelog string
	CreatedAt time.Time
	Records   []RawRecord
}

// ResolvedRecord is a RawRecord whose finding place has been mapped to
// a catalogued location with coordinates.
type ResolvedRecord struct {
	RawRecord

	MappedFindingPlace string
	Lat                float64
	Lon                float64
}

// IdentifiedRecord is a ResolvedRecord with a stable identity and a
// content hash. RecordID is stable across snapshots for the same
// physical animal entry; ContentHash additionally covers the status, so
// it changes whenever the status changes.
type IdentifiedRecord struct {
	ResolvedRecord

	RecordID    string
	ContentHash string
}

// HistoricalRecord is the durable, append-only unit of the historical
// table. For any RecordID at most one row has IsDeleted=false after a
// reconciliation completes; rows are never mutated in place or removed.
type HistoricalRecord struct {
	IdentifiedRecord

	IsDeleted bool
	UpdatedAt time.Time
}

// Current reports whether the row is the active version of its record.
func (r HistoricalRecord) Current() bool {
	return !r.IsDeleted
}
