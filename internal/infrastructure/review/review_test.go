package review

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

func resolved(raw, mapped string, lat, lon float64) entities.ResolvedRecord {
	return entities.ResolvedRecord{
		RawRecord:          entities.RawRecord{FindingPlace: raw, Species: "seal", Status: entities.StatusInRehabilitation},
		MappedFindingPlace: mapped,
		Lat:                lat,
		Lon:                lon,
	}
}

func TestAutoAccept(t *testing.T) {
	proposed := []entities.ResolvedRecord{resolved("Friedrichskog", "Friedrichskoog", 54.0076, 8.8804)}

	reviewed, err := AutoAccept{}.Review(context.Background(), proposed)
	require.NoError(t, err)
	assert.Equal(t, proposed, reviewed)
}

func TestConsole_AcceptAll(t *testing.T) {
	proposed := []entities.ResolvedRecord{
		resolved("Friedrichskog", "Friedrichskoog", 54.0076, 8.8804),
		resolved("Friedrichskog", "Friedrichskoog", 54.0076, 8.8804),
		resolved("Westerhever", "Westerhever", 54.37, 8.64),
	}

	var out bytes.Buffer
	console := NewConsole(strings.NewReader("y\n\n"), &out)

	reviewed, err := console.Review(context.Background(), proposed)
	require.NoError(t, err)
	assert.Equal(t, proposed, reviewed)
	// Two distinct raw places mean exactly two prompts.
	assert.Equal(t, 2, strings.Count(out.String(), "Accept?"))
}

func TestConsole_CorrectionAppliesToAllOccurrences(t *testing.T) {
	proposed := []entities.ResolvedRecord{
		resolved("Amrum Strand", "Friedrichskoog", 54.0076, 8.8804),
		resolved("Amrum Strand", "Friedrichskoog", 54.0076, 8.8804),
	}

	input := "n\nAmrum\n54.6650\n8.3330\n"
	console := NewConsole(strings.NewReader(input), &bytes.Buffer{})

	reviewed, err := console.Review(context.Background(), proposed)
	require.NoError(t, err)
	require.Len(t, reviewed, 2)
	for _, record := range reviewed {
		assert.Equal(t, "Amrum", record.MappedFindingPlace)
		assert.InDelta(t, 54.6650, record.Lat, 1e-9)
		assert.InDelta(t, 8.3330, record.Lon, 1e-9)
		assert.Equal(t, "Amrum Strand", record.FindingPlace)
	}
}

func TestConsole_RejectsEmptyCorrection(t *testing.T) {
	proposed := []entities.ResolvedRecord{resolved("Somewhere", "Friedrichskoog", 54.0076, 8.8804)}
	console := NewConsole(strings.NewReader("n\n\n"), &bytes.Buffer{})

	_, err := console.Review(context.Background(), proposed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")
}

func TestConsole_BadCoordinate(t *testing.T) {
	proposed := []entities.ResolvedRecord{resolved("Somewhere", "Friedrichskoog", 54.0076, 8.8804)}
	console := NewConsole(strings.NewReader("n\nAmrum\nnorth\n"), &bytes.Buffer{})

	_, err := console.Review(context.Background(), proposed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing latitude")
}

func TestConsole_InputClosed(t *testing.T) {
	proposed := []entities.ResolvedRecord{resolved("Somewhere", "Friedrichskoog", 54.0076, 8.8804)}
	console := NewConsole(strings.NewReader(""), &bytes.Buffer{})

	_, err := console.Review(context.Background(), proposed)
	require.Error(t, err)
}
