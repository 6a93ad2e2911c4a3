// Package services contains the domain logic of the historization
// pipeline.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ersonp/rob-core/internal/domain/entities"
	"github.com/ersonp/rob-core/internal/domain/ports"
)

// LocationResolver maps raw, possibly misspelled finding places to
// catalogued entries using Ratcliff/Obershelp sequence similarity.
// Empty input maps to the reserved Unknown entry.
type LocationResolver struct {
	store     ports.Store
	catalogue []entities.CatalogueEntry
}

// NewLocationResolver creates a resolver backed by the given store.
// Call Load before resolving.
func NewLocationResolver(store ports.Store) *LocationResolver {
	return &LocationResolver{store: store}
}

// Load reads the current catalogue from the store.
func (r *LocationResolver) Load(ctx context.Context) error {
	catalogue, err := r.store.LoadCatalogue(ctx)
	if err != nil {
		return fmt.Errorf("loading catalogue: %w", err)
	}
	r.catalogue = catalogue
	return nil
}

// Catalogue returns the catalogue entries currently held in memory.
func (r *LocationResolver) Catalogue() []entities.CatalogueEntry {
	return r.catalogue
}

// Resolve returns the best-matching catalogue entry for a raw finding
// place. Ties are broken by catalogue order (first of equally ranked
// candidates). An empty input resolves to the Unknown sentinel.
func (r *LocationResolver) Resolve(raw string) (entities.CatalogueEntry, error) {
	if len(r.catalogue) == 0 {
		return entities.CatalogueEntry{}, entities.ErrNoCatalogue
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return r.unknown(), nil
	}

	best := r.catalogue[0]
	bestScore := similarity(raw, best.Name)
	for _, entry := range r.catalogue[1:] {
		if score := similarity(raw, entry.Name); score > bestScore {
			best, bestScore = entry, score
		}
	}
	return best, nil
}

// similarity returns the Ratcliff/Obershelp ratio between two names,
// compared character-wise and case-insensitively.
func similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	return strings.Split(strings.ToLower(s), "")
}

// ResolveBatch resolves every record of one snapshot, preserving input
// order.
func (r *LocationResolver) ResolveBatch(records []entities.RawRecord) ([]entities.ResolvedRecord, error) {
	resolved := make([]entities.ResolvedRecord, 0, len(records))
	for _, record := range records {
		entry, err := r.Resolve(record.FindingPlace)
		if err != nil {
			return nil, fmt.Errorf("resolving finding place %q: %w", record.FindingPlace, err)
		}
		resolved = append(resolved, entities.ResolvedRecord{
			RawRecord:          record,
			MappedFindingPlace: entry.Name,
			Lat:                entry.Lat,
			Lon:                entry.Lon,
		})
	}
	return resolved, nil
}

// AppendConfirmed merges confirmed finding places into the catalogue,
// deduplicating by exact name and re-sorting alphabetically, then
// rewrites the catalogue in full.
func (r *LocationResolver) AppendConfirmed(ctx context.Context, confirmed []entities.CatalogueEntry) error {
	known := make(map[string]struct{}, len(r.catalogue))
	for _, entry := range r.catalogue {
		known[entry.Name] = struct{}{}
	}

	updated := append([]entities.CatalogueEntry(nil), r.catalogue...)
	added := false
	for _, entry := range confirmed {
		if _, ok := known[entry.Name]; ok {
			continue
		}
		known[entry.Name] = struct{}{}
		updated = append(updated, entry)
		added = true
	}
	if !added {
		return nil
	}

	sort.Slice(updated, func(i, j int) bool { return updated[i].Name < updated[j].Name })

	if err := r.store.SaveCatalogue(ctx, updated); err != nil {
		return fmt.Errorf("saving catalogue: %w", err)
	}
	r.catalogue = updated
	return nil
}

// unknown returns the catalogued Unknown entry if present, falling back
// to the built-in sentinel.
func (r *LocationResolver) unknown() entities.CatalogueEntry {
	for _, entry := range r.catalogue {
		if entry.Name == entities.UnknownPlace {
			return entry
		}
	}
	return entities.UnknownEntry()
}
