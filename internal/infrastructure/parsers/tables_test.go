package parsers

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

func TestCatalogueRoundTrip(t *testing.T) {
	catalogue := []entities.CatalogueEntry{
		{Name: "Friedrichskoog", Lat: 54.0076, Lon: 8.8801},
		entities.UnknownEntry(),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCatalogue(&buf, catalogue))

	decoded, err := ReadCatalogue(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, catalogue[0], decoded[0])
	assert.Equal(t, entities.UnknownPlace, decoded[1].Name)
	assert.False(t, decoded[1].HasCoordinates())
}

func historicalRecord(recordID string, admission, updated string, deleted bool) entities.HistoricalRecord {
	day := func(value string) time.Time {
		d, _ := time.Parse("2006-01-02", value)
		return d
	}
	return entities.HistoricalRecord{
		IdentifiedRecord: entities.IdentifiedRecord{
			ResolvedRecord: entities.ResolvedRecord{
				RawRecord: entities.RawRecord{
					AdmissionDate:     day(admission),
					Species:           "Seehund",
					Status:            entities.StatusInRehabilitation,
					SnapshotCreatedAt: day(updated),
				},
				MappedFindingPlace: "Friedrichskoog",
				Lat:                54.0076,
				Lon:                8.8801,
			},
			RecordID:    recordID,
			ContentHash: "hash-" + recordID,
		},
		IsDeleted: deleted,
		UpdatedAt: day(updated),
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	records := []entities.HistoricalRecord{
		historicalRecord("b", "2023-05-02", "2023-05-03", true),
		historicalRecord("a", "2023-05-01", "2023-05-02", false),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, records))

	decoded, err := ReadHistory(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	// Rows come back sorted by (updated_at, admission_date).
	assert.Equal(t, records[1], decoded[0])
	assert.Equal(t, records[0], decoded[1])
}

func TestWriteHistorySortsByUpdatedAtThenAdmission(t *testing.T) {
	records := []entities.HistoricalRecord{
		historicalRecord("late-admission", "2023-05-20", "2023-05-02", false),
		historicalRecord("early-admission", "2023-05-01", "2023-05-02", false),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "early-admission,"))
	assert.True(t, strings.HasPrefix(lines[2], "late-admission,"))
}

func TestHistoryUnknownPlaceCoordinates(t *testing.T) {
	record := historicalRecord("u", "2023-05-01", "2023-05-02", false)
	record.MappedFindingPlace = entities.UnknownPlace
	record.Lat = math.NaN()
	record.Lon = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, []entities.HistoricalRecord{record}))

	decoded, err := ReadHistory(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.True(t, math.IsNaN(decoded[0].Lat))
	assert.True(t, math.IsNaN(decoded[0].Lon))
}

func TestReadHistoryRejectsUnknownStatus(t *testing.T) {
	input := strings.Join([]string{
		strings.Join(historyHeader, ","),
		"id,Friedrichskoog,54.0,8.8,2023-05-01,Seehund,adopted,2023-05-02T00:00:00Z,2023-05-02T00:00:00Z,0,hash",
	}, "\n")

	_, err := ReadHistory(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}
