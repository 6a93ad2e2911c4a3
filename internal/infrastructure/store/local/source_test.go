package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const sampleBatch = "finding_place,admission_date,species,status\n" +
	"Friedrichskoog,2023-05-01,Seehund,in_rehabilitation\n"

func TestSourceChangelogsSortedOldestFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "changelog/20230516_heuler.log", "")
	writeFile(t, dir, "changelog/20230502_heuler.log", "")
	writeFile(t, dir, "changelog/notes.txt", "ignored")

	source := NewSource(dir)
	changelogs, err := source.Changelogs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"20230502_heuler.log", "20230516_heuler.log"}, changelogs)
}

func TestSourceChangelogsEmptyDir(t *testing.T) {
	source := NewSource(t.TempDir())
	changelogs, err := source.Changelogs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changelogs)
}

func TestSourceFetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "raw/20230502_heuler.csv", sampleBatch)

	source := NewSource(dir)
	batch, err := source.Fetch(context.Background(), "20230502_heuler.log")
	require.NoError(t, err)

	assert.Equal(t, "20230502_heuler.log", batch.Changelog)
	assert.Equal(t, day("2023-05-02"), batch.CreatedAt)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "Friedrichskoog", batch.Records[0].FindingPlace)
}

func TestSourceFetchMissingBatch(t *testing.T) {
	source := NewSource(t.TempDir())

	_, err := source.Fetch(context.Background(), "20230502_heuler.log")
	assert.ErrorIs(t, err, entities.ErrSourceUnavailable)
}

func TestSourceFetchBadPrefix(t *testing.T) {
	source := NewSource(t.TempDir())

	_, err := source.Fetch(context.Background(), "heuler.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date prefix")
}

func TestSourceDelete(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "changelog/20230502_heuler.log", "")

	source := NewSource(dir)
	require.NoError(t, source.Delete(context.Background(), "20230502_heuler.log"))

	changelogs, err := source.Changelogs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changelogs)
}
