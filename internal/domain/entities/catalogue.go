package entities

import "math"

// UnknownPlace is the reserved catalogue name that missing finding
// places resolve to. It carries no coordinates.
const UnknownPlace = "Unknown"

// CatalogueEntry is one curated finding place with geo coordinates.
// Entries are immutable once written; the catalogue only grows.
type CatalogueEntry struct {
	Name string
	Lat  float64
	Lon  float64
}

// UnknownEntry returns the sentinel entry used for missing finding
// places. Its coordinates are NaN, which the table codec serializes as
// empty fields.
func UnknownEntry() CatalogueEntry {
	return CatalogueEntry{Name: UnknownPlace, Lat: math.NaN(), Lon: math.NaN()}
}

// HasCoordinates reports whether the entry carries usable coordinates.
func (e CatalogueEntry) HasCoordinates() bool {
	return !math.IsNaN(e.Lat) && !math.IsNaN(e.Lon)
}
