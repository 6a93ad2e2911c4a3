package s3

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// fakeClient keeps objects in memory behind the Client interface.
type fakeClient struct {
	objects map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: map[string][]byte{}}
}

func (c *fakeClient) GetObject(_ context.Context, params *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	data, ok := c.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (c *fakeClient) PutObject(_ context.Context, params *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	c.objects[aws.ToString(params.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (c *fakeClient) DeleteObject(_ context.Context, params *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	delete(c.objects, aws.ToString(params.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func (c *fakeClient) ListObjectsV2(_ context.Context, params *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	var keys []string
	for key := range c.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &awss3.ListObjectsV2Output{}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func TestStore_CatalogueRoundTrip(t *testing.T) {
	store := NewStoreWithClient(newFakeClient(), "rob-bucket", "")
	ctx := context.Background()

	catalogue, err := store.LoadCatalogue(ctx)
	require.NoError(t, err)
	assert.Empty(t, catalogue)

	want := []entities.CatalogueEntry{
		{Name: "Friedrichskoog", Lat: 54.0076, Lon: 8.8804},
		entities.UnknownEntry(),
	}
	require.NoError(t, store.SaveCatalogue(ctx, want))

	got, err := store.LoadCatalogue(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, want[0], got[0])
	assert.Equal(t, entities.UnknownPlace, got[1].Name)
}

func TestStore_HistoryRoundTrip(t *testing.T) {
	store := NewStoreWithClient(newFakeClient(), "rob-bucket", "")
	ctx := context.Background()

	history, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	record := entities.HistoricalRecord{
		IdentifiedRecord: entities.IdentifiedRecord{
			ResolvedRecord: entities.ResolvedRecord{
				RawRecord: entities.RawRecord{
					FindingPlace:      "Friedrichskoog",
					AdmissionDate:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
					Species:           "seal",
					Status:            entities.StatusInRehabilitation,
					SnapshotCreatedAt: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
				},
				MappedFindingPlace: "Friedrichskoog",
				Lat:                54.0076,
				Lon:                8.8804,
			},
			RecordID:    "id-1",
			ContentHash: "hash-1",
		},
		UpdatedAt: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveHistory(ctx, []entities.HistoricalRecord{record}))

	got, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, record, got[0])
}

func TestStore_SaveHistoryCopy(t *testing.T) {
	client := newFakeClient()
	store := NewStoreWithClient(client, "rob-bucket", "")
	ctx := context.Background()

	at := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.SaveHistoryCopy(ctx, nil, at))

	_, ok := client.objects["data/interim/2024-06-02_09-30-00_rob.csv"]
	assert.True(t, ok)
}

func TestStore_AppendAudit(t *testing.T) {
	client := newFakeClient()
	store := NewStoreWithClient(client, "rob-bucket", "")
	ctx := context.Background()

	first := entities.AuditEntry{RunID: "run-1", Action: entities.AuditRunStarted}
	second := entities.AuditEntry{RunID: "run-1", Action: entities.AuditRunCommitted}
	require.NoError(t, store.AppendAudit(ctx, []entities.AuditEntry{first}))
	require.NoError(t, store.AppendAudit(ctx, []entities.AuditEntry{second}))

	data := client.objects["data/deployment/audit.jsonl"]
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], string(entities.AuditRunStarted))
	assert.Contains(t, lines[1], string(entities.AuditRunCommitted))
}

func TestStore_Changelogs(t *testing.T) {
	client := newFakeClient()
	client.objects["data/changelog/20240603_seehund.log"] = nil
	client.objects["data/changelog/20240601_heuler.log"] = nil
	client.objects["data/changelog/notes.txt"] = nil
	store := NewStoreWithClient(client, "rob-bucket", "")

	changelogs, err := store.Changelogs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"20240601_heuler.log", "20240603_seehund.log"}, changelogs)
}

func TestStore_Fetch(t *testing.T) {
	client := newFakeClient()
	client.objects["data/raw/20240601_heuler.csv"] = []byte(
		"finding_place,admission_date,species,status\n" +
			"Friedrichskoog,2024-05-28,seal,in_rehabilitation\n")
	store := NewStoreWithClient(client, "rob-bucket", "")

	batch, err := store.Fetch(context.Background(), "20240601_heuler.log")
	require.NoError(t, err)
	assert.Equal(t, "20240601_heuler.log", batch.Changelog)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), batch.CreatedAt)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "Friedrichskoog", batch.Records[0].FindingPlace)
}

func TestStore_FetchMissingBatch(t *testing.T) {
	store := NewStoreWithClient(newFakeClient(), "rob-bucket", "")

	_, err := store.Fetch(context.Background(), "20240601_heuler.log")
	require.ErrorIs(t, err, entities.ErrSourceUnavailable)
}

func TestStore_Delete(t *testing.T) {
	client := newFakeClient()
	client.objects["data/changelog/20240601_heuler.log"] = nil
	store := NewStoreWithClient(client, "rob-bucket", "")

	require.NoError(t, store.Delete(context.Background(), "20240601_heuler.log"))
	_, ok := client.objects["data/changelog/20240601_heuler.log"]
	assert.False(t, ok)
}
