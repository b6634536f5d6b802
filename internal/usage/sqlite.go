package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS usage_counters (
	license_key TEXT NOT NULL,
	endpoint    TEXT NOT NULL,
	day         TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (license_key, endpoint, day)
);
`

// SQLiteStore persists usage counters in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) a SQLite-backed usage store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("connection string is required for SQLite usage store")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create usage schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Increment adds one to the counter for (license, endpoint) on the given day.
func (ss *SQLiteStore) Increment(ctx context.Context, licenseKey, endpoint string, day time.Time) error {
	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO usage_counters (license_key, endpoint, day, count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (license_key, endpoint, day)
		DO UPDATE SET count = count + 1`,
		licenseKey, endpoint, dayKey(day).Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to increment usage counter: %w", err)
	}
	return nil
}

// Totals returns per-endpoint request totals for a license across all days.
func (ss *SQLiteStore) Totals(ctx context.Context, licenseKey string) (map[string]int64, error) {
	rows, err := ss.db.QueryContext(ctx, `
		SELECT endpoint, SUM(count)
		FROM usage_counters
		WHERE license_key = ?
		GROUP BY endpoint`,
		licenseKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var endpoint string
		var count int64
		if err := rows.Scan(&endpoint, &count); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		totals[endpoint] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage rows: %w", err)
	}
	return totals, nil
}

// Ping verifies the database is reachable.
func (ss *SQLiteStore) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the database connection.
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}
