package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig contains configuration for the config file watcher.
type WatcherConfig struct {
	// Path is the configuration file to watch.
	Path string

	// DebounceInterval is the quiet period before a reload fires after a
	// change is observed. Editors often produce several events per save.
	// Default: 250ms
	DebounceInterval time.Duration
}

// Watcher watches the configuration file and invokes a callback when it
// changes. Reload failures leave the previous configuration in place.
type Watcher struct {
	watcher *fsnotify.Watcher
	config  WatcherConfig
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewWatcher creates a config file watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 250 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		config:  cfg,
		logger:  slog.Default().With("component", "config.watcher"),
		stopCh:  make(chan struct{}),
	}, nil
}

// Watch runs until the context is cancelled or Stop is called, invoking
// onChange after each debounced change to the watched file.
//
// The parent directory is watched rather than the file itself: editors and
// configuration management tools typically replace the file, which would
// otherwise silently detach the watch.
func (w *Watcher) Watch(ctx context.Context, onChange func() error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.config.Path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("config watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.DebounceInterval.Milliseconds(),
	)

	var timer *time.Timer
	var timerC <-chan time.Time

	target := filepath.Clean(w.config.Path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil

		case <-w.stopCh:
			w.logger.Info("config watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.config.DebounceInterval)
				timerC = timer.C
			} else {
				timer.Reset(w.config.DebounceInterval)
			}

		case <-timerC:
			timerC = nil
			timer = nil

			w.logger.Info("config file changed, reloading", "path", w.config.Path)
			if err := onChange(); err != nil {
				w.logger.Error("config reload failed, keeping previous configuration",
					"error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

// Stop halts the watcher and releases its resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		close(w.stopCh)
		w.running = false
	}
	return w.watcher.Close()
}
