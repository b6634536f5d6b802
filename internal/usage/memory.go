package usage

import (
	"context"
	"sync"
	"time"
)

type memoryKey struct {
	licenseKey string
	endpoint   string
	day        time.Time
}

// MemoryStore keeps usage counters in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	counters map[memoryKey]int64
}

// NewMemoryStore creates an empty in-memory usage store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[memoryKey]int64),
	}
}

// Increment adds one to the counter for (license, endpoint) on the given day.
func (ms *MemoryStore) Increment(ctx context.Context, licenseKey, endpoint string, day time.Time) error {
	key := memoryKey{licenseKey: licenseKey, endpoint: endpoint, day: dayKey(day)}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.counters[key]++
	return nil
}

// Totals returns per-endpoint request totals for a license across all days.
func (ms *MemoryStore) Totals(ctx context.Context, licenseKey string) (map[string]int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	totals := make(map[string]int64)
	for key, count := range ms.counters {
		if key.licenseKey == licenseKey {
			totals[key.endpoint] += count
		}
	}
	return totals, nil
}

// Ping always succeeds for the in-memory store.
func (ms *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (ms *MemoryStore) Close() error {
	return nil
}
