package services

import (
	"sort"
	"time"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// The aggregation views are pure functions of (historical table,
// window): no side effects, safe to call repeatedly and concurrently
// against a stable table snapshot.
//
// Window semantics: StatusBreakdown filters on the latest snapshot
// timestamp per record; WeeklyAdmissions and LocationCounts filter on
// the admission date.

// StatusBreakdown counts the latest known status per distinct record ID
// whose most recent snapshot timestamp falls inside the window, over
// the current (non-deleted) rows. Counts are zero-filled for statuses
// with no matches; NoData is set when the total is zero.
func StatusBreakdown(records []entities.HistoricalRecord, window entities.Window) entities.StatusBreakdown {
	latest := make(map[string]entities.HistoricalRecord)
	for _, row := range records {
		if !row.Current() {
			continue
		}
		prev, ok := latest[row.RecordID]
		if !ok || row.SnapshotCreatedAt.After(prev.SnapshotCreatedAt) {
			latest[row.RecordID] = row
		}
	}

	breakdown := entities.StatusBreakdown{Counts: make(map[entities.Status]int, len(entities.AllStatuses))}
	for _, status := range entities.AllStatuses {
		breakdown.Counts[status] = 0
	}
	for _, row := range latest {
		if !window.Contains(row.SnapshotCreatedAt) {
			continue
		}
		breakdown.Counts[row.Status]++
		breakdown.Total++
	}
	breakdown.NoData = breakdown.Total == 0
	return breakdown
}

// WeeklyAdmissions counts distinct record IDs per (species, admission
// week). Weeks are anchored to Monday; only admission dates inside the
// window are included. A window with no matches yields an empty, valid
// result. Deleted rows participate: admission date and species are
// immutable per record ID, so distinct IDs are counted the same either
// way.
func WeeklyAdmissions(records []entities.HistoricalRecord, window entities.Window) []entities.WeeklyAdmissionRow {
	type group struct {
		species string
		week    time.Time
	}

	seen := make(map[string]struct{}, len(records))
	counts := make(map[group]int)
	for _, row := range records {
		if _, ok := seen[row.RecordID]; ok {
			continue
		}
		seen[row.RecordID] = struct{}{}
		if !window.Contains(row.AdmissionDate) {
			continue
		}
		counts[group{species: row.Species, week: weekStart(row.AdmissionDate)}]++
	}

	rows := make([]entities.WeeklyAdmissionRow, 0, len(counts))
	for g, count := range counts {
		rows = append(rows, entities.WeeklyAdmissionRow{Species: g.species, WeekStart: g.week, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].WeekStart.Equal(rows[j].WeekStart) {
			return rows[i].WeekStart.Before(rows[j].WeekStart)
		}
		return rows[i].Species < rows[j].Species
	})
	return rows
}

// LocationCounts counts distinct record IDs per mapped finding place
// for admission dates inside the window. The Unknown place is included;
// it reduces interpretability of totals but dropping it would hide
// admissions.
func LocationCounts(records []entities.HistoricalRecord, window entities.Window) []entities.LocationCountRow {
	seen := make(map[string]struct{}, len(records))
	counts := make(map[string]*entities.LocationCountRow)
	for _, row := range records {
		if _, ok := seen[row.RecordID]; ok {
			continue
		}
		seen[row.RecordID] = struct{}{}
		if !window.Contains(row.AdmissionDate) {
			continue
		}
		entry, ok := counts[row.MappedFindingPlace]
		if !ok {
			entry = &entities.LocationCountRow{
				Place: row.MappedFindingPlace,
				Lat:   row.Lat,
				Lon:   row.Lon,
			}
			counts[row.MappedFindingPlace] = entry
		}
		entry.Count++
	}

	rows := make([]entities.LocationCountRow, 0, len(counts))
	for _, entry := range counts {
		rows = append(rows, *entry)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Place < rows[j].Place })
	return rows
}

// weekStart returns the Monday that opens the week containing t, at
// midnight in t's location.
func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
