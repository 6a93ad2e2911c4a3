package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/rob-core/internal/domain/entities"
	"github.com/ersonp/rob-core/internal/domain/mocks"
)

func fullWindow() entities.Window {
	return entities.Window{Min: day("2023-01-01"), Max: day("2024-01-01")}
}

// populate runs a real update so the views operate on a table produced
// by the actual pipeline.
func populatedStore(t *testing.T) *mocks.Store {
	t.Helper()
	store := storeWithCatalogue()
	source := mocks.NewBatchSource(
		rawBatch("20230502_heuler.log", "2023-05-02",
			rawRecord("Friedrichskoog", "2023-05-01", "Seehund", entities.StatusInRehabilitation),
			rawRecord("", "2023-05-01", "Kegelrobbe", entities.StatusInRehabilitation)),
	)
	handler := NewUpdateHandler(store, source, autoAccept(), testLogger())
	_, err := handler.Handle(context.Background(), UpdateOptions{})
	require.NoError(t, err)
	return store
}

func TestViewsHandle(t *testing.T) {
	handler := NewViewsHandler(populatedStore(t))

	result, err := handler.Handle(context.Background(), fullWindow())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Breakdown.Total)
	assert.Equal(t, 2, result.Breakdown.Counts[entities.StatusInRehabilitation])

	require.Len(t, result.Weekly, 2) // one row per species in the same week
	assert.Equal(t, day("2023-05-01"), result.Weekly[0].WeekStart)

	require.Len(t, result.Locations, 2)
	assert.Equal(t, "Friedrichskoog", result.Locations[0].Place)
	assert.Equal(t, entities.UnknownPlace, result.Locations[1].Place)
}

func TestViewsEmptyWindowIsNotAnError(t *testing.T) {
	handler := NewViewsHandler(populatedStore(t))

	result, err := handler.Handle(context.Background(), entities.Window{Min: day("2020-01-01"), Max: day("2020-02-01")})
	require.NoError(t, err)
	assert.True(t, result.Breakdown.NoData)
	assert.Empty(t, result.Weekly)
	assert.Empty(t, result.Locations)
}

func TestViewsLoadFailure(t *testing.T) {
	store := mocks.NewStore()
	store.LoadErr = errors.New("bucket unreachable")
	handler := NewViewsHandler(store)

	_, err := handler.Handle(context.Background(), fullWindow())
	assert.Error(t, err)
}
