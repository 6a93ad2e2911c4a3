package entities

import "time"

// Window is a half-open date range [Min, Max) used to filter the
// aggregation views.
type Window struct {
	Min time.Time
	Max time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Min) && t.Before(w.Max)
}

// StatusBreakdown is the per-status count of the latest known state of
// each animal inside a window. Counts is zero-filled for statuses with
// no matches; NoData is set when the total is zero so the dashboard can
// render a "no data available" state instead of an empty chart.
type StatusBreakdown struct {
	Counts map[Status]int
	Total  int
	NoData bool
}

// WeeklyAdmissionRow is one (species, admission week) group. WeekStart
// is the Monday that opens the week.
type WeeklyAdmissionRow struct {
	Species   string
	WeekStart time.Time
	Count     int
}

// LocationCountRow is one finding-place group with its coordinates.
// The Unknown place is included; its coordinates are NaN.
type LocationCountRow struct {
	Place string
	Lat   float64
	Lon   float64
	Count int
}
