package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"patternlab/relay/pkg/admission"
)

// GlobalKey is the reserved backend key for the global window when the
// controller runs in global scope.
const GlobalKey = "__global__"

// PersisterConfig configures a Persister.
type PersisterConfig struct {
	// FlushInterval is how often dirty windows are written to the backend.
	// Default: 5 seconds.
	FlushInterval time.Duration

	// SaveTimeout bounds each backend write. Default: 2 seconds.
	SaveTimeout time.Duration
}

func (c *PersisterConfig) applyDefaults() {
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = 2 * time.Second
	}
}

// Persister keeps a controller's window state synchronized with a Backend so
// admission decisions survive restarts.
//
// Writes are asynchronous: decisions mark a key dirty, and a background loop
// snapshots and saves dirty windows on an interval. A crash can therefore
// lose at most one flush interval of admissions, which errs on the side of
// admitting after a restart rather than over-denying.
type Persister struct {
	controller *admission.Controller
	backend    Backend
	cfg        PersisterConfig
	logger     *slog.Logger

	mu    sync.Mutex
	dirty map[string]struct{}

	done chan struct{}
	wg   sync.WaitGroup
	stop sync.Once
}

// NewPersister creates a persister and starts its flush loop.
func NewPersister(controller *admission.Controller, backend Backend, cfg PersisterConfig) *Persister {
	cfg.applyDefaults()

	p := &Persister{
		controller: controller,
		backend:    backend,
		cfg:        cfg,
		logger:     slog.Default().With("component", "admission-store"),
		dirty:      make(map[string]struct{}),
		done:       make(chan struct{}),
	}

	p.wg.Add(1)
	go p.flushLoop()

	return p
}

// RestoreAll loads every persisted window into the controller. Stale stamps
// are discarded during restore, so old state never over-denies.
func (p *Persister) RestoreAll(ctx context.Context) error {
	states, err := p.backend.List(ctx)
	if err != nil {
		return err
	}

	global := p.controller.Config().Scope == admission.ScopeGlobal

	restored := 0
	for _, state := range states {
		key := state.Key
		if key == GlobalKey {
			key = ""
		} else if global {
			// Per-key rows left over from a scope change would each
			// replace the one shared window; only the global row counts.
			continue
		}
		p.controller.Restore(key, state.Stamps)
		restored++
	}

	if restored > 0 {
		p.logger.Info("restored admission windows", "count", restored)
	}
	return nil
}

// MarkDirty records that the window for a key changed and needs flushing.
// Safe to call from the request path; it never blocks on the backend.
//
// In global scope every key hits the one shared window, so all keys collapse
// to the single global row; the backend never holds per-client copies of it.
func (p *Persister) MarkDirty(key string) {
	if p.controller.Config().Scope == admission.ScopeGlobal {
		key = ""
	}

	p.mu.Lock()
	p.dirty[key] = struct{}{}
	p.mu.Unlock()
}

// Flush writes all dirty windows to the backend immediately.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	keys := make([]string, 0, len(p.dirty))
	for k := range p.dirty {
		keys = append(keys, k)
	}
	p.dirty = make(map[string]struct{})
	p.mu.Unlock()

	var firstErr error
	for _, key := range keys {
		if err := p.saveWindow(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			p.logger.Error("failed to persist window", "key", key, "error", err)
		}
	}
	return firstErr
}

// Close flushes outstanding state and stops the background loop.
func (p *Persister) Close() error {
	p.stop.Do(func() { close(p.done) })
	p.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.SaveTimeout)
	defer cancel()
	return p.Flush(ctx)
}

func (p *Persister) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.cfg.SaveTimeout)
			if err := p.Flush(ctx); err != nil {
				p.logger.Warn("flush completed with errors", "error", err)
			}
			cancel()
		}
	}
}

func (p *Persister) saveWindow(ctx context.Context, key string) error {
	win := p.controller.Window(key)
	stamps := win.Snapshot()

	backendKey := key
	if backendKey == "" {
		backendKey = GlobalKey
	}

	if len(stamps) == 0 {
		return p.backend.Delete(ctx, backendKey)
	}

	return p.backend.Save(ctx, &WindowState{
		Key:         backendKey,
		Stamps:      stamps,
		LastUpdated: time.Now(),
	})
}
