package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for inventory persistence operations.
// This abstraction allows for different implementations (SQLite, mock) and
// enables unit testing without database dependencies.
type Repository interface {
	// Upsert inserts a new record or refreshes the existing row with the
	// same (finder, key) identity: properties and last seen are replaced,
	// times seen accumulates. A new row gets a generated ID.
	Upsert(ctx context.Context, record *Record) error

	// GetByKey retrieves a record by its (finder, key) identity.
	// Returns ErrRecordNotFound if no such service has been observed.
	GetByKey(ctx context.Context, finder, key string) (*Record, error)

	// List retrieves all records, most recently seen first.
	List(ctx context.Context) ([]Record, error)

	// ListByFinder retrieves all records observed by one finder kind.
	ListByFinder(ctx context.Context, finder string) ([]Record, error)

	// Summarize computes aggregate statistics at the given reference time.
	Summarize(ctx context.Context, now time.Time) (*Summary, error)

	// DeleteOlderThan purges records not seen since the cutoff.
	// Returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// listLimit caps inventory listings; the UI never needs more.
const listLimit = 1000

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the
// discovered_services schema applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or refreshes one observed service.
func (r *SQLiteRepository) Upsert(ctx context.Context, record *Record) error {
	if record == nil || record.Finder == "" || record.Key == "" {
		return ErrInvalidRecord
	}

	properties, err := json.Marshal(record.Properties)
	if err != nil {
		return fmt.Errorf("marshalling properties: %w", err)
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	timesSeen := record.TimesSeen
	if timesSeen <= 0 {
		timesSeen = 1
	}

	query := `
		INSERT INTO discovered_services
			(id, finder, service_key, service_type, properties, first_seen, last_seen, times_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(finder, service_key) DO UPDATE SET
			service_type = excluded.service_type,
			properties = excluded.properties,
			last_seen = excluded.last_seen,
			times_seen = discovered_services.times_seen + 1`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.Finder,
		record.Key,
		record.ServiceType,
		string(properties),
		record.FirstSeen.UTC().Unix(),
		record.LastSeen.UTC().Unix(),
		timesSeen,
	)
	if err != nil {
		return fmt.Errorf("upserting service record: %w", err)
	}
	return nil
}

// GetByKey retrieves a record by its (finder, key) identity.
func (r *SQLiteRepository) GetByKey(ctx context.Context, finder, key string) (*Record, error) {
	query := `
		SELECT id, finder, service_key, service_type, properties, first_seen, last_seen, times_seen
		FROM discovered_services
		WHERE finder = ? AND service_key = ?`

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, finder, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying service record: %w", err)
	}
	return record, nil
}

// List retrieves all records, most recently seen first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	query := `
		SELECT id, finder, service_key, service_type, properties, first_seen, last_seen, times_seen
		FROM discovered_services
		ORDER BY last_seen DESC
		LIMIT ?`

	return r.queryRecords(ctx, query, listLimit)
}

// ListByFinder retrieves all records observed by one finder kind.
func (r *SQLiteRepository) ListByFinder(ctx context.Context, finder string) ([]Record, error) {
	query := `
		SELECT id, finder, service_key, service_type, properties, first_seen, last_seen, times_seen
		FROM discovered_services
		WHERE finder = ?
		ORDER BY last_seen DESC
		LIMIT ?`

	return r.queryRecords(ctx, query, finder, listLimit)
}

// Summarize computes aggregate statistics at the given reference time.
func (r *SQLiteRepository) Summarize(ctx context.Context, now time.Time) (*Summary, error) {
	summary := &Summary{ByFinder: make(map[string]int)}

	fiveMinAgo := now.Add(-5 * time.Minute).Unix()
	oneHourAgo := now.Add(-1 * time.Hour).Unix()

	query := `
		SELECT finder, COUNT(*),
			SUM(CASE WHEN last_seen >= ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN last_seen >= ? THEN 1 ELSE 0 END)
		FROM discovered_services
		GROUP BY finder`

	rows, err := r.db.QueryContext(ctx, query, fiveMinAgo, oneHourAgo)
	if err != nil {
		return nil, fmt.Errorf("summarizing inventory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var finder string
		var total, active5m, active1h int
		if err := rows.Scan(&finder, &total, &active5m, &active1h); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		summary.ByFinder[finder] = total
		summary.TotalServices += total
		summary.ActiveLast5Min += active5m
		summary.ActiveLastHour += active1h
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summary rows: %w", err)
	}
	return summary, nil
}

// DeleteOlderThan purges records not seen since the cutoff.
func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM discovered_services WHERE last_seen < ?",
		cutoff.UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging service records: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged records: %w", err)
	}
	return removed, nil
}

// queryRecords runs a multi-row record query.
func (r *SQLiteRepository) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying service records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning service record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating service records: %w", err)
	}
	return records, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row into a Record.
func scanRecord(row scanner) (*Record, error) {
	var record Record
	var properties string
	var firstSeen, lastSeen int64

	if err := row.Scan(
		&record.ID,
		&record.Finder,
		&record.Key,
		&record.ServiceType,
		&properties,
		&firstSeen,
		&lastSeen,
		&record.TimesSeen,
	); err != nil {
		return nil, err
	}

	if properties != "" {
		if err := json.Unmarshal([]byte(properties), &record.Properties); err != nil {
			return nil, fmt.Errorf("unmarshalling properties: %w", err)
		}
	}
	record.FirstSeen = time.Unix(firstSeen, 0).UTC()
	record.LastSeen = time.Unix(lastSeen, 0).UTC()
	return &record, nil
}
