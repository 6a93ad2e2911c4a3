package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

const admissionDateLayout = "2006-01-02"

// RecordIdentifier derives a stable identity and a content hash for
// each record of one snapshot. The identity is a digest over (mapped
// finding place, admission date, species, ordinal), where the ordinal
// is the zero-based occurrence count of the tuple within the batch in
// input order; it disambiguates several same-day, same-place,
// same-species admissions. The content hash additionally covers the
// status, so it changes on every status transition.
type RecordIdentifier struct{}

// NewRecordIdentifier creates a RecordIdentifier.
func NewRecordIdentifier() *RecordIdentifier {
	return &RecordIdentifier{}
}

// IdentifyBatch assigns record IDs and content hashes to a resolved
// batch. It returns a DuplicateIdentityError if two records end up with
// the same identity, which indicates a broken ordinal assignment.
func (i *RecordIdentifier) IdentifyBatch(resolved []entities.ResolvedRecord) ([]entities.IdentifiedRecord, error) {
	type tuple struct {
		place   string
		date    string
		species string
	}

	ordinals := make(map[tuple]int, len(resolved))
	seen := make(map[string]struct{}, len(resolved))
	identified := make([]entities.IdentifiedRecord, 0, len(resolved))

	for _, record := range resolved {
		key := tuple{
			place:   record.MappedFindingPlace,
			date:    record.AdmissionDate.Format(admissionDateLayout),
			species: record.Species,
		}
		ordinal := ordinals[key]
		ordinals[key] = ordinal + 1

		recordID := digest(key.place, key.date, key.species, strconv.Itoa(ordinal))
		if _, dup := seen[recordID]; dup {
			return nil, &entities.DuplicateIdentityError{
				RecordID:      recordID,
				FindingPlace:  record.MappedFindingPlace,
				AdmissionDate: record.AdmissionDate,
				Species:       record.Species,
			}
		}
		seen[recordID] = struct{}{}

		identified = append(identified, entities.IdentifiedRecord{
			ResolvedRecord: record,
			RecordID:       recordID,
			ContentHash:    digest(recordID, key.place, key.date, key.species, string(record.Status)),
		})
	}

	return identified, nil
}

// digest returns the hex SHA-256 of a deterministic serialization of
// the given fields. The exact algorithm is not load-bearing but must be
// stable across runs.
func digest(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "\n")))
	return hex.EncodeToString(sum[:])
}
