package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation. Used in tests and
// for deployments that want the audit endpoints without a database file.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*DecisionRecord
	closed  bool
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) WriteRecord(_ context.Context, record *DecisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return newStorageError("memory", "write", errClosed)
	}

	clone := *record
	m.records = append(m.records, &clone)
	return nil
}

func (m *MemoryStorage) ListRecords(_ context.Context, filter QueryFilter) ([]*DecisionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, newStorageError("memory", "list", errClosed)
	}

	var out []*DecisionRecord
	// Newest first.
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if filter.ClientKey != "" && r.ClientKey != filter.ClientKey {
			continue
		}
		if filter.Decision != "" && r.Decision != filter.Decision {
			continue
		}
		if !filter.Since.IsZero() && r.CreatedAt.Before(filter.Since) {
			continue
		}

		clone := *r
		out = append(out, &clone)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStorage) CountRecords(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, newStorageError("memory", "count", errClosed)
	}
	return int64(len(m.records)), nil
}

func (m *MemoryStorage) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, newStorageError("memory", "delete", errClosed)
	}

	kept := m.records[:0]
	var deleted int64
	for _, r := range m.records {
		if r.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return deleted, nil
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}
