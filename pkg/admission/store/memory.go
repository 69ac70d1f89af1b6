package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBackend implements Backend using an in-process map. All state is
// lost when the process exits. Thread-safe via sync.RWMutex.
type MemoryBackend struct {
	states map[string]*WindowState
	mu     sync.RWMutex

	maxEntries int
	done       chan struct{}
	closeOnce  sync.Once
}

// MemoryBackendConfig configures the memory backend.
type MemoryBackendConfig struct {
	// MaxEntries caps the number of stored states. The oldest entry is
	// evicted when the cap is reached. Default: 100,000
	MaxEntries int

	// CleanupInterval is how often expired entries are removed.
	// Default: 1 minute
	CleanupInterval time.Duration

	// RetentionPeriod is how long inactive entries are kept.
	// Default: 24 hours
	RetentionPeriod time.Duration
}

// NewMemoryBackend creates a memory backend with default settings.
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendWithConfig(MemoryBackendConfig{})
}

// NewMemoryBackendWithConfig creates a memory backend with custom settings.
func NewMemoryBackendWithConfig(cfg MemoryBackendConfig) *MemoryBackend {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100000
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.RetentionPeriod <= 0 {
		cfg.RetentionPeriod = 24 * time.Hour
	}

	b := &MemoryBackend{
		states:     make(map[string]*WindowState),
		maxEntries: cfg.MaxEntries,
		done:       make(chan struct{}),
	}

	go b.cleanupLoop(cfg.CleanupInterval, cfg.RetentionPeriod)

	return b
}

// Save implements Backend.
func (m *MemoryBackend) Save(_ context.Context, state *WindowState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.states[state.Key]; !exists && len(m.states) >= m.maxEntries {
		m.evictOldestLocked()
	}

	stored := *state
	if stored.LastUpdated.IsZero() {
		stored.LastUpdated = time.Now()
	}
	stored.Stamps = append([]time.Time(nil), state.Stamps...)
	m.states[state.Key] = &stored

	return nil
}

// Load implements Backend.
func (m *MemoryBackend) Load(_ context.Context, key string) (*WindowState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[key]
	if !ok {
		return nil, nil
	}

	out := *state
	out.Stamps = append([]time.Time(nil), state.Stamps...)
	return &out, nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}

// List implements Backend.
func (m *MemoryBackend) List(_ context.Context) ([]*WindowState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*WindowState, 0, len(m.states))
	for _, state := range m.states {
		s := *state
		s.Stamps = append([]time.Time(nil), state.Stamps...)
		out = append(out, &s)
	}
	return out, nil
}

// Cleanup implements Backend.
func (m *MemoryBackend) Cleanup(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, state := range m.states {
		if state.LastUpdated.Before(olderThan) {
			delete(m.states, key)
			removed++
		}
	}
	return removed, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// evictOldestLocked removes the least recently updated entry.
// Caller must hold the write lock.
func (m *MemoryBackend) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time

	for key, state := range m.states {
		if oldestKey == "" || state.LastUpdated.Before(oldestTime) {
			oldestKey = key
			oldestTime = state.LastUpdated
		}
	}
	if oldestKey != "" {
		delete(m.states, oldestKey)
	}
}

func (m *MemoryBackend) cleanupLoop(interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, _ = m.Cleanup(context.Background(), time.Now().Add(-retention))
		}
	}
}
