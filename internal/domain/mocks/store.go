// Package mocks provides in-memory implementations of the domain ports
// for tests.
package mocks

import (
	"context"
	"time"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// Store is a mock implementation of ports.Store.
type Store struct {
	Catalogue []entities.CatalogueEntry
	History   []entities.HistoricalRecord
	Audit     []entities.AuditEntry

	CatalogueSaves int
	HistorySaves   int
	Copies         int

	LoadErr error
	SaveErr error
}

// NewStore creates a new mock Store.
func NewStore() *Store {
	return &Store{}
}

// LoadCatalogue reads the full finding-place catalogue.
func (m *Store) LoadCatalogue(_ context.Context) ([]entities.CatalogueEntry, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Catalogue, nil
}

// SaveCatalogue rewrites the catalogue in full.
func (m *Store) SaveCatalogue(_ context.Context, catalogue []entities.CatalogueEntry) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Catalogue = catalogue
	m.CatalogueSaves++
	return nil
}

// LoadHistory reads the full historical record table.
func (m *Store) LoadHistory(_ context.Context) ([]entities.HistoricalRecord, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.History, nil
}

// SaveHistory atomically replaces the historical record table.
func (m *Store) SaveHistory(_ context.Context, records []entities.HistoricalRecord) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.History = records
	m.HistorySaves++
	return nil
}

// SaveHistoryCopy writes a timestamped copy of the historical table.
func (m *Store) SaveHistoryCopy(_ context.Context, _ []entities.HistoricalRecord, _ time.Time) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Copies++
	return nil
}

// AppendAudit appends reconciliation actions to the audit trail.
func (m *Store) AppendAudit(_ context.Context, audit []entities.AuditEntry) error {
	m.Audit = append(m.Audit, audit...)
	return nil
}

// Close releases any resources held by the store.
func (m *Store) Close() error { return nil }
