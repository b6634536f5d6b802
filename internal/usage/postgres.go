package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS usage_counters (
	license_key TEXT NOT NULL,
	endpoint    TEXT NOT NULL,
	day         DATE NOT NULL,
	count       BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (license_key, endpoint, day)
);
`

// PostgresStore persists usage counters in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens (and migrates) a PostgreSQL-backed usage store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL usage store")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create usage schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Increment adds one to the counter for (license, endpoint) on the given day.
func (ps *PostgresStore) Increment(ctx context.Context, licenseKey, endpoint string, day time.Time) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO usage_counters (license_key, endpoint, day, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (license_key, endpoint, day)
		DO UPDATE SET count = usage_counters.count + 1`,
		licenseKey, endpoint, dayKey(day))
	if err != nil {
		return fmt.Errorf("failed to increment usage counter: %w", err)
	}
	return nil
}

// Totals returns per-endpoint request totals for a license across all days.
func (ps *PostgresStore) Totals(ctx context.Context, licenseKey string) (map[string]int64, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT endpoint, SUM(count)::BIGINT
		FROM usage_counters
		WHERE license_key = $1
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
func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the connection pool.
func (ps *PostgresStore) Close() error {
	ps.pool.Close()
	return nil
}
