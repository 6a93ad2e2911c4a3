// Package sqlite provides a SQLite implementation of the Store port.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/rob-core/internal/domain/entities"
)

// Store persists the catalogue, the historical record table and the
// audit trail in a single SQLite database. Table saves are full
// rewrites inside one transaction, so readers see the pre-run or the
// post-run state and nothing in between.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at the given path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Confirmed finding places with coordinates
	CREATE TABLE IF NOT EXISTS catalogue (
		name TEXT PRIMARY KEY,
		lat REAL,
		lon REAL
	);

	-- Append-only record history (one row per record version)
	CREATE TABLE IF NOT EXISTS history (
		record_id TEXT NOT NULL,
		mapped_finding_place TEXT NOT NULL,
		lat REAL,
		lon REAL,
		admission_date TEXT NOT NULL,
		species TEXT NOT NULL,
		status TEXT NOT NULL,
		snapshot_created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		content_hash TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_record ON history(record_id);
	CREATE INDEX IF NOT EXISTS idx_history_current ON history(record_id, is_deleted);

	-- Timestamped snapshots of the history table
	CREATE TABLE IF NOT EXISTS history_archive (
		copied_at TEXT NOT NULL,
		record_id TEXT NOT NULL,
		mapped_finding_place TEXT NOT NULL,
		lat REAL,
		lon REAL,
		admission_date TEXT NOT NULL,
		species TEXT NOT NULL,
		status TEXT NOT NULL,
		snapshot_created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		content_hash TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_archive_copied ON history_archive(copied_at);

	-- Audit trail (tracks reconciliation actions per run)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		action TEXT NOT NULL,
		record_id TEXT,
		detail TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_run ON audit_log(run_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// LoadCatalogue reads all confirmed finding places, ordered by name.
func (s *Store) LoadCatalogue(ctx context.Context) ([]entities.CatalogueEntry, error) {
	query := `SELECT name, lat, lon FROM catalogue ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying catalogue: %w", err)
	}
	defer rows.Close()

	var catalogue []entities.CatalogueEntry
	for rows.Next() {
		var entry entities.CatalogueEntry
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&entry.Name, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scanning catalogue entry: %w", err)
		}
		entry.Lat = fromNullFloat(lat)
		entry.Lon = fromNullFloat(lon)
		catalogue = append(catalogue, entry)
	}
	return catalogue, rows.Err()
}

// SaveCatalogue replaces the catalogue in full.
func (s *Store) SaveCatalogue(ctx context.Context, catalogue []entities.CatalogueEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalogue`); err != nil {
			return fmt.Errorf("clearing catalogue: %w", err)
		}

		query := `INSERT INTO catalogue (name, lat, lon) VALUES (?, ?, ?)`
		for _, entry := range catalogue {
			_, err := tx.ExecContext(ctx, query,
				entry.Name,
				toNullFloat(entry.Lat),
				toNullFloat(entry.Lon),
			)
			if err != nil {
				return fmt.Errorf("inserting catalogue entry %s: %w", entry.Name, err)
			}
		}
		return nil
	})
}

// LoadHistory reads every record version, current and superseded.
func (s *Store) LoadHistory(ctx context.Context) ([]entities.HistoricalRecord, error) {
	query := `
		SELECT record_id, mapped_finding_place, lat, lon, admission_date,
			species, status, snapshot_created_at, updated_at, is_deleted, content_hash
		FROM history
		ORDER BY updated_at ASC, admission_date ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []entities.HistoricalRecord
	for rows.Next() {
		record, err := scanHistoricalRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveHistory replaces the historical record table.
func (s *Store) SaveHistory(ctx context.Context, records []entities.HistoricalRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		return insertHistory(ctx, tx, `
			INSERT INTO history (record_id, mapped_finding_place, lat, lon, admission_date,
				species, status, snapshot_created_at, updated_at, is_deleted, content_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, records, nil)
	})
}

// SaveHistoryCopy archives a snapshot of the table under the given timestamp.
func (s *Store) SaveHistoryCopy(ctx context.Context, records []entities.HistoricalRecord, at time.Time) error {
	copiedAt := formatTime(at)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertHistory(ctx, tx, `
			INSERT INTO history_archive (copied_at, record_id, mapped_finding_place, lat, lon,
				admission_date, species, status, snapshot_created_at, updated_at, is_deleted, content_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, records, []any{copiedAt})
	})
}

// AppendAudit appends reconciliation actions to the audit log.
func (s *Store) AppendAudit(ctx context.Context, audit []entities.AuditEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO audit_log (run_id, action, record_id, detail, created_at) VALUES (?, ?, ?, ?, ?)`
		for _, entry := range audit {
			var recordID, detail sql.NullString
			if entry.RecordID != "" {
				recordID = sql.NullString{String: entry.RecordID, Valid: true}
			}
			if entry.Detail != "" {
				detail = sql.NullString{String: entry.Detail, Valid: true}
			}
			_, err := tx.ExecContext(ctx, query,
				entry.RunID,
				string(entry.Action),
				recordID,
				detail,
				formatTime(entry.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("inserting audit entry: %w", err)
			}
		}
		return nil
	})
}

// FindAuditByRun returns the audit entries of a run, oldest first.
func (s *Store) FindAuditByRun(ctx context.Context, runID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT run_id, action, record_id, detail, created_at
		FROM audit_log
		WHERE run_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var action, createdAt string
		var recordID, detail sql.NullString
		if err := rows.Scan(&entry.RunID, &action, &recordID, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entry.Action = entities.AuditAction(action)
		entry.RecordID = recordID.String
		entry.Detail = detail.String
		entry.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, query string, records []entities.HistoricalRecord, prefix []any) error {
	for _, record := range records {
		args := append([]any{}, prefix...)
		args = append(args,
			record.RecordID,
			record.MappedFindingPlace,
			toNullFloat(record.Lat),
			toNullFloat(record.Lon),
			record.AdmissionDate.Format("2006-01-02"),
			record.Species,
			string(record.Status),
			formatTime(record.SnapshotCreatedAt),
			formatTime(record.UpdatedAt),
			boolToInt(record.IsDeleted),
			record.ContentHash,
		)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting record %s: %w", record.RecordID, err)
		}
	}
	return nil
}

func scanHistoricalRecord(rows *sql.Rows) (entities.HistoricalRecord, error) {
	var record entities.HistoricalRecord
	var lat, lon sql.NullFloat64
	var admissionDate, status, snapshotCreatedAt, updatedAt string
	var isDeleted int

	err := rows.Scan(
		&record.RecordID,
		&record.MappedFindingPlace,
		&lat,
		&lon,
		&admissionDate,
		&record.Species,
		&status,
		&snapshotCreatedAt,
		&updatedAt,
		&isDeleted,
		&record.ContentHash,
	)
	if err != nil {
		return entities.HistoricalRecord{}, fmt.Errorf("scanning record: %w", err)
	}

	record.Lat = fromNullFloat(lat)
	record.Lon = fromNullFloat(lon)
	record.Status = entities.Status(status)
	record.IsDeleted = isDeleted != 0

	if record.AdmissionDate, err = time.Parse("2006-01-02", admissionDate); err != nil {
		return entities.HistoricalRecord{}, fmt.Errorf("parsing admission date: %w", err)
	}
	if record.SnapshotCreatedAt, err = parseTime(snapshotCreatedAt); err != nil {
		return entities.HistoricalRecord{}, err
	}
	if record.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return entities.HistoricalRecord{}, err
	}
	return record, nil
}

// SQLite has no NaN, so missing coordinates are stored as NULL.
func toNullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
