package mocks

import (
	"context"
	"fmt"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// BatchSource is a mock implementation of ports.BatchSource.
type BatchSource struct {
	Pending []string
	Batches map[string]entities.RawBatch
	Deleted []string

	ListErr   error
	FetchErr  error
	DeleteErr error
}

// NewBatchSource creates a mock source announcing the given batches in
// order.
func NewBatchSource(batches ...entities.RawBatch) *BatchSource {
	source := &BatchSource{Batches: make(map[string]entities.RawBatch, len(batches))}
	for _, batch := range batches {
		source.Pending = append(source.Pending, batch.Changelog)
		source.Batches[batch.Changelog] = batch
	}
	return source
}

// Changelogs returns the pending changelog markers, oldest first.
func (m *BatchSource) Changelogs(_ context.Context) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Pending, nil
}

// Fetch retrieves the raw batch announced by the given marker.
func (m *BatchSource) Fetch(_ context.Context, changelog string) (entities.RawBatch, error) {
	if m.FetchErr != nil {
		return entities.RawBatch{}, m.FetchErr
	}
	batch, ok := m.Batches[changelog]
	if !ok {
		return entities.RawBatch{}, fmt.Errorf("fetching batch for %s: %w", changelog, entities.ErrSourceUnavailable)
	}
	return batch, nil
}

// Delete removes a changelog marker.
func (m *BatchSource) Delete(_ context.Context, changelog string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, changelog)
	return nil
}
