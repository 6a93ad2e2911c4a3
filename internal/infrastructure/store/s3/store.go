// Package s3 implements the Store and BatchSource ports on top of an
// S3 bucket, using the same key layout as the local backend: raw/,
// changelog/, processed/, deployment/ and interim/ under a common
// prefix. S3 object writes are atomic per key, which gives readers the
// pre-run or post-run table and never a partial one.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ersonp/rob-core/internal/domain/entities"
	"github.com/ersonp/rob-core/internal/infrastructure/parsers"
)

// Client is the subset of the S3 API the store uses.
type Client interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Store persists the tables, markers and raw batches in one bucket.
type Store struct {
	client Client
	bucket string
	prefix string
}

// NewStore creates a store using the default AWS credential chain.
func NewStore(ctx context.Context, bucket, region, prefix string) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewStoreWithClient(awss3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewStoreWithClient creates a store around an existing client.
func NewStoreWithClient(client Client, bucket, prefix string) *Store {
	if prefix == "" {
		prefix = "data"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// LoadCatalogue reads the finding-place catalogue. A missing object
// means an empty catalogue.
func (s *Store) LoadCatalogue(ctx context.Context) ([]entities.CatalogueEntry, error) {
	body, err := s.get(ctx, s.key("processed", "catalogued_finding_places.csv"))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	defer body.Close()

	catalogue, err := parsers.ReadCatalogue(body)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return catalogue, nil
}

// SaveCatalogue rewrites the catalogue in full.
func (s *Store) SaveCatalogue(ctx context.Context, catalogue []entities.CatalogueEntry) error {
	var buf bytes.Buffer
	if err := parsers.WriteCatalogue(&buf, catalogue); err != nil {
		return err
	}
	return s.put(ctx, s.key("processed", "catalogued_finding_places.csv"), buf.Bytes())
}

// LoadHistory reads the historical record table. A missing object means
// an empty table.
func (s *Store) LoadHistory(ctx context.Context) ([]entities.HistoricalRecord, error) {
	body, err := s.get(ctx, s.key("deployment", "rob.csv"))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	defer body.Close()

	records, err := parsers.ReadHistory(body)
	if err != nil {
		return nil, fmt.Errorf("reading historical table: %w", err)
	}
	return records, nil
}

// SaveHistory replaces the historical record table.
func (s *Store) SaveHistory(ctx context.Context, records []entities.HistoricalRecord) error {
	var buf bytes.Buffer
	if err := parsers.WriteHistory(&buf, records); err != nil {
		return err
	}
	return s.put(ctx, s.key("deployment", "rob.csv"), buf.Bytes())
}

// SaveHistoryCopy writes a timestamped copy under the interim prefix.
func (s *Store) SaveHistoryCopy(ctx context.Context, records []entities.HistoricalRecord, at time.Time) error {
	var buf bytes.Buffer
	if err := parsers.WriteHistory(&buf, records); err != nil {
		return err
	}
	return s.put(ctx, s.key("interim", at.Format("2006-01-02_15-04-05")+"_rob.csv"), buf.Bytes())
}

// AppendAudit appends reconciliation actions to the audit object.
func (s *Store) AppendAudit(ctx context.Context, audit []entities.AuditEntry) error {
	key := s.key("deployment", "audit.jsonl")

	var buf bytes.Buffer
	body, err := s.get(ctx, key)
	if err != nil {
		return err
	}
	if body != nil {
		if _, err := io.Copy(&buf, body); err != nil {
			body.Close()
			return fmt.Errorf("reading audit trail: %w", err)
		}
		body.Close()
	}

	encoder := json.NewEncoder(&buf)
	for _, entry := range audit {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("encoding audit entry: %w", err)
		}
	}
	return s.put(ctx, key, buf.Bytes())
}

// Close releases any resources held by the store.
func (s *Store) Close() error { return nil }

// Changelogs returns the pending changelog markers, oldest first.
func (s *Store) Changelogs(ctx context.Context) ([]string, error) {
	out, err := s.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key("changelog") + "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing changelogs: %w", err)
	}

	var changelogs []string
	for _, object := range out.Contents {
		name := path.Base(aws.ToString(object.Key))
		if !strings.HasSuffix(name, ".log") {
			continue
		}
		changelogs = append(changelogs, name)
	}
	sort.Strings(changelogs)
	return changelogs, nil
}

// Fetch retrieves the raw batch announced by the given marker.
func (s *Store) Fetch(ctx context.Context, changelog string) (entities.RawBatch, error) {
	createdAt, err := snapshotTime(changelog)
	if err != nil {
		return entities.RawBatch{}, err
	}

	batchName := strings.TrimSuffix(changelog, ".log") + ".csv"
	body, err := s.get(ctx, s.key("raw", batchName))
	if err != nil {
		return entities.RawBatch{}, err
	}
	if body == nil {
		return entities.RawBatch{}, fmt.Errorf("raw batch %s missing: %w", batchName, entities.ErrSourceUnavailable)
	}
	defer body.Close()

	records, err := parsers.ParseBatch(body)
	if err != nil {
		return entities.RawBatch{}, fmt.Errorf("parsing raw batch %s: %w", batchName, err)
	}

	return entities.RawBatch{Changelog: changelog, CreatedAt: createdAt, Records: records}, nil
}

// Delete removes a changelog marker.
func (s *Store) Delete(ctx context.Context, changelog string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key("changelog", changelog)),
	})
	if err != nil {
		return fmt.Errorf("deleting changelog %s: %w", changelog, err)
	}
	return nil
}

// get returns the object body, or nil when the key does not exist.
func (s *Store) get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

func (s *Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("putting s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *Store) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
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
