package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ersonp/rob-core/internal/domain/entities"
	"github.com/ersonp/rob-core/internal/infrastructure/parsers"
)

const (
	rawDir       = "raw"
	changelogDir = "changelog"
)

// Source discovers raw snapshot batches on the local filesystem. A
// changelog marker YYYYMMDD_<name>.log pairs with a raw batch
// YYYYMMDD_<name>.csv; the date prefix is the snapshot timestamp.
type Source struct {
	dataDir string
}

// NewSource creates a batch source rooted at dataDir.
func NewSource(dataDir string) *Source {
	return &Source{dataDir: dataDir}
}

// Changelogs returns the pending changelog markers, oldest first.
func (s *Source) Changelogs(_ context.Context) ([]string, error) {
	dir, err := os.ReadDir(filepath.Join(s.dataDir, changelogDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing changelogs: %w", err)
	}

	var changelogs []string
	for _, entry := range dir {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		changelogs = append(changelogs, entry.Name())
	}
	sort.Strings(changelogs)
	return changelogs, nil
}

// Fetch retrieves the raw batch announced by the given marker.
func (s *Source) Fetch(_ context.Context, changelog string) (entities.RawBatch, error) {
	createdAt, err := snapshotTime(changelog)
	if err != nil {
		return entities.RawBatch{}, err
	}

	batchName := strings.TrimSuffix(changelog, ".log") + ".csv"
	file, err := os.Open(filepath.Join(s.dataDir, rawDir, batchName))
	if os.IsNotExist(err) {
		return entities.RawBatch{}, fmt.Errorf("raw batch %s missing: %w", batchName, entities.ErrSourceUnavailable)
	}
	if err != nil {
		return entities.RawBatch{}, fmt.Errorf("opening raw batch %s: %w", batchName, err)
	}
	defer file.Close()

	records, err := parsers.ParseBatch(file)
	if err != nil {
		return entities.RawBatch{}, fmt.Errorf("parsing raw batch %s: %w", batchName, err)
	}

	return entities.RawBatch{Changelog: changelog, CreatedAt: createdAt, Records: records}, nil
}

// Delete removes a changelog marker.
func (s *Source) Delete(_ context.Context, changelog string) error {
	if err := os.Remove(filepath.Join(s.dataDir, changelogDir, changelog)); err != nil {
		return fmt.Errorf("deleting changelog %s: %w", changelog, err)
	}
	return nil
}

// snapshotTime parses the YYYYMMDD prefix of a changelog name.
func snapshotTime(changelog string) (time.Time, error) {
	prefix, _, ok := strings.Cut(changelog, "_")
	if !ok {
		return time.Time{}, fmt.Errorf("changelog %s has no date prefix", changelog)
	}
	createdAt, err := time.Parse("20060102", prefix)
	if err != nil {
		return time.Time{}, fmt.Errorf("changelog %s has an invalid date prefix: %w", changelog, err)
	}
	return createdAt, nil
}
