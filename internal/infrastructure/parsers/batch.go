// Package parsers reads the CSV representations of raw snapshot
// batches and of the persisted catalogue and history tables.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// ParseBatch reads one raw snapshot batch. Expected columns:
// finding_place, admission_date, species, status. The finding place may
// be empty; the snapshot timestamp is stamped onto every record by the
// caller, which knows the changelog the batch belongs to.
func ParseBatch(r io.Reader) ([]entities.RawRecord, error) {
	reader := csv.NewReader(r)

	colIndex, err := readHeader(reader, []string{"finding_place", "admission_date", "species", "status"})
	if err != nil {
		return nil, err
	}

	var records []entities.RawRecord
	lineNum := 1
	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		admission, err := time.Parse(dateLayout, getColumn(row, colIndex, "admission_date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid admission date: %w", lineNum, err)
		}
		status := entities.Status(getColumn(row, colIndex, "status"))
		if !status.Valid() {
			return nil, fmt.Errorf("line %d: unknown status %q", lineNum, status)
		}

		records = append(records, entities.RawRecord{
			FindingPlace:  strings.TrimSpace(getColumn(row, colIndex, "finding_place")),
			AdmissionDate: admission,
			Species:       getColumn(row, colIndex, "species"),
			Status:        status,
		})
	}

	return records, nil
}

// readHeader reads the CSV header row and validates required columns.
func readHeader(reader *csv.Reader, required []string) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}

	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// getColumn safely retrieves a column value from a row.
func getColumn(row []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(row) {
		return row[idx]
	}
	return ""
}
