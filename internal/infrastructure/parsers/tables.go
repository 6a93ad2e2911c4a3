package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

var catalogueHeader = []string{"name", "lat", "lon"}

var historyHeader = []string{
	"record_id", "mapped_finding_place", "lat", "lon", "admission_date",
	"species", "status", "snapshot_created_at", "updated_at", "is_deleted",
	"content_hash",
}

// ReadCatalogue decodes the catalogued finding places table.
func ReadCatalogue(r io.Reader) ([]entities.CatalogueEntry, error) {
	reader := csv.NewReader(r)
	colIndex, err := readHeader(reader, catalogueHeader)
	if err != nil {
		return nil, err
	}

	var catalogue []entities.CatalogueEntry
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

		lat, err := parseCoordinate(getColumn(row, colIndex, "lat"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lat: %w", lineNum, err)
		}
		lon, err := parseCoordinate(getColumn(row, colIndex, "lon"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lon: %w", lineNum, err)
		}

		catalogue = append(catalogue, entities.CatalogueEntry{
			Name: getColumn(row, colIndex, "name"),
			Lat:  lat,
			Lon:  lon,
		})
	}

	return catalogue, nil
}

// WriteCatalogue encodes the catalogue table.
func WriteCatalogue(w io.Writer, catalogue []entities.CatalogueEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(catalogueHeader); err != nil {
		return fmt.Errorf("writing catalogue header: %w", err)
	}
	for _, entry := range catalogue {
		row := []string{entry.Name, formatCoordinate(entry.Lat), formatCoordinate(entry.Lon)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing catalogue row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadHistory decodes the historical records table.
func ReadHistory(r io.Reader) ([]entities.HistoricalRecord, error) {
	reader := csv.NewReader(r)
	colIndex, err := readHeader(reader, historyHeader)
	if err != nil {
		return nil, err
	}

	var records []entities.HistoricalRecord
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

		record, err := parseHistoryRow(row, colIndex)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, record)
	}

	return records, nil
}

// WriteHistory encodes the historical records table, sorted by
// (updated_at, admission_date) for readability and deterministic
// diffing.
func WriteHistory(w io.Writer, records []entities.HistoricalRecord) error {
	sorted := append([]entities.HistoricalRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].UpdatedAt.Equal(sorted[j].UpdatedAt) {
			return sorted[i].UpdatedAt.Before(sorted[j].UpdatedAt)
		}
		return sorted[i].AdmissionDate.Before(sorted[j].AdmissionDate)
	})

	writer := csv.NewWriter(w)
	if err := writer.Write(historyHeader); err != nil {
		return fmt.Errorf("writing history header: %w", err)
	}
	for _, record := range sorted {
		isDeleted := "0"
		if record.IsDeleted {
			isDeleted = "1"
		}
		row := []string{
			record.RecordID,
			record.MappedFindingPlace,
			formatCoordinate(record.Lat),
			formatCoordinate(record.Lon),
			record.AdmissionDate.Format(dateLayout),
			record.Species,
			string(record.Status),
			record.SnapshotCreatedAt.Format(timeLayout),
			record.UpdatedAt.Format(timeLayout),
			isDeleted,
			record.ContentHash,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing history row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseHistoryRow(row []string, colIndex map[string]int) (entities.HistoricalRecord, error) {
	lat, err := parseCoordinate(getColumn(row, colIndex, "lat"))
	if err != nil {
		return entities.HistoricalRecord{}, fmt.Errorf("invalid lat: %w", err)
	}
	lon, err := parseCoordinate(getColumn(row, colIndex, "lon"))
	if err != nil {
		return entities.HistoricalRecord{}, fmt.Errorf("invalid lon: %w", err)
	}
	admission, err := time.Parse(dateLayout, getColumn(row, colIndex, "admission_date"))
	if err != nil {
		return entities.HistoricalRecord{}, fmt.Errorf("invalid admission date: %w", err)
	}
	snapshotAt, err := time.Parse(timeLayout, getColumn(row, colIndex, "snapshot_created_at"))
	if err != nil {
		return entities.HistoricalRecord{}, fmt.Errorf("invalid snapshot timestamp: %w", err)
	}
	updatedAt, err := time.Parse(timeLayout, getColumn(row, colIndex, "updated_at"))
	if err != nil {
		return entities.HistoricalRecord{}, fmt.Errorf("invalid updated timestamp: %w", err)
	}
	status := entities.Status(getColumn(row, colIndex, "status"))
	if !status.Valid() {
		return entities.HistoricalRecord{}, fmt.Errorf("unknown status %q", status)
	}

	return entities.HistoricalRecord{
		IdentifiedRecord: entities.IdentifiedRecord{
			ResolvedRecord: entities.ResolvedRecord{
				RawRecord: entities.RawRecord{
					AdmissionDate:     admission,
					Species:           getColumn(row, colIndex, "species"),
					Status:            status,
					SnapshotCreatedAt: snapshotAt,
				},
				MappedFindingPlace: getColumn(row, colIndex, "mapped_finding_place"),
				Lat:                lat,
				Lon:                lon,
			},
			RecordID:    getColumn(row, colIndex, "record_id"),
			ContentHash: getColumn(row, colIndex, "content_hash"),
		},
		IsDeleted: getColumn(row, colIndex, "is_deleted") == "1",
		UpdatedAt: updatedAt,
	}, nil
}

// parseCoordinate parses a latitude or longitude field. An empty field
// means no coordinate (the Unknown place) and decodes as NaN.
func parseCoordinate(value string) (float64, error) {
	if value == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(value, 64)
}

func formatCoordinate(value float64) string {
	if math.IsNaN(value) {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
