// Package local implements the Store and BatchSource ports on the
// local filesystem, mirroring the bucket layout of the object-storage
// backend: raw/ for batches, changelog/ for markers, processed/ for the
// catalogue, deployment/ for the historical table and interim/ for
// timestamped copies.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ersonp/rob-core/internal/domain/entities"
	"github.com/ersonp/rob-core/internal/infrastructure/parsers"
)

const (
	catalogueFile = "processed/catalogued_finding_places.csv"
	historyFile   = "deployment/rob.csv"
	auditFile     = "deployment/audit.jsonl"
	copyDir       = "interim"
)

// Store persists the catalogue and historical table under a data
// directory. Table writes go through a temp file and a rename, so a
// concurrent reader sees either the old or the new table, never a
// partial one.
type Store struct {
	dataDir string
}

// NewStore creates a store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// LoadCatalogue reads the finding-place catalogue. A missing file means
// an empty catalogue.
func (s *Store) LoadCatalogue(_ context.Context) ([]entities.CatalogueEntry, error) {
	file, err := os.Open(filepath.Join(s.dataDir, catalogueFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening catalogue: %w", err)
	}
	defer file.Close()

	catalogue, err := parsers.ReadCatalogue(file)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return catalogue, nil
}

// SaveCatalogue rewrites the catalogue in full.
func (s *Store) SaveCatalogue(_ context.Context, catalogue []entities.CatalogueEntry) error {
	return s.writeAtomic(catalogueFile, func(w io.Writer) error {
		return parsers.WriteCatalogue(w, catalogue)
	})
}

// LoadHistory reads the historical record table. A missing file means
// an empty table.
func (s *Store) LoadHistory(_ context.Context) ([]entities.HistoricalRecord, error) {
	file, err := os.Open(filepath.Join(s.dataDir, historyFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening historical table: %w", err)
	}
	defer file.Close()

	records, err := parsers.ReadHistory(file)
	if err != nil {
		return nil, fmt.Errorf("reading historical table: %w", err)
	}
	return records, nil
}

// SaveHistory atomically replaces the historical record table.
func (s *Store) SaveHistory(_ context.Context, records []entities.HistoricalRecord) error {
	return s.writeAtomic(historyFile, func(w io.Writer) error {
		return parsers.WriteHistory(w, records)
	})
}

// SaveHistoryCopy writes a timestamped copy next to the interim data.
func (s *Store) SaveHistoryCopy(_ context.Context, records []entities.HistoricalRecord, at time.Time) error {
	name := filepath.Join(copyDir, at.Format("2006-01-02_15-04-05")+"_rob.csv")
	return s.writeAtomic(name, func(w io.Writer) error {
		return parsers.WriteHistory(w, records)
	})
}

// AppendAudit appends reconciliation actions as JSON lines.
func (s *Store) AppendAudit(_ context.Context, audit []entities.AuditEntry) error {
	path := filepath.Join(s.dataDir, auditFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit trail: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, entry := range audit {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("appending audit entry: %w", err)
		}
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error { return nil }

// writeAtomic writes a file via a temp sibling and a rename.
func (s *Store) writeAtomic(name string, write func(io.Writer) error) error {
	path := filepath.Join(s.dataDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
