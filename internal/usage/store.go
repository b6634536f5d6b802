// Package usage records per-license request accounting. Each successful
// authorization increments a daily counter keyed by (license, endpoint, day);
// totals feed the health endpoint and operator tooling. Recording is
// best-effort: a failed write never blocks a client request.
package usage

import (
	"context"
	"fmt"
	"time"

	"marketgate/internal/models"
)

// Record is a single accounting row.
type Record struct {
	LicenseKey string    `json:"license_key"`
	Endpoint   string    `json:"endpoint"`
	Day        time.Time `json:"day"`
	Count      int64     `json:"count"`
}

// Store persists per-license usage counters.
type Store interface {
	// Increment adds one to the counter for (license, endpoint) on the given day.
	Increment(ctx context.Context, licenseKey, endpoint string, day time.Time) error

	// Totals returns the per-endpoint request totals for a license across all days.
	Totals(ctx context.Context, licenseKey string) (map[string]int64, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// New instantiates a usage store based on the provided configuration.
// Supported types:
//   - memory: in-memory counters (for testing/development)
//   - sqlite: SQLite database storage (lightweight single-node)
//   - postgres: PostgreSQL database storage (production-ready)
func New(config models.UsageConfig) (Store, error) {
	switch config.Type {
	case models.UsageStoreMemory:
		return NewMemoryStore(), nil
	case models.UsageStoreSQLite:
		return NewSQLiteStore(config.DSN)
	case models.UsageStorePostgres:
		return NewPostgresStore(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported usage store type: %s", config.Type)
	}
}

// dayKey truncates a timestamp to its UTC calendar day.
func dayKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
