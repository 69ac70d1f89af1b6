package admission

import (
	"log/slog"
	"sync"
	"time"
)

// Scope selects how the controller groups windows.
type Scope string

const (
	// ScopeKey tracks an independent window per client key. This is the
	// default: one abusive client cannot exhaust the quota for everyone.
	ScopeKey Scope = "key"

	// ScopeGlobal tracks a single process-wide window shared by all
	// callers. Kept as a fallback for deployments that want a hard cap on
	// total upstream traffic regardless of origin.
	ScopeGlobal Scope = "global"
)

// Config contains configuration for the admission controller.
type Config struct {
	// MaxRequests is the maximum number of admitted requests per window.
	// Default: 100
	MaxRequests int

	// WindowDuration is the rolling window length.
	// Default: 15 minutes
	WindowDuration time.Duration

	// Scope selects per-key or global windows.
	// Default: ScopeKey
	Scope Scope

	// SweepInterval is how often idle per-key windows are evicted from the
	// registry. Zero disables the sweep. Eviction is a memory bound only;
	// correctness never depends on it because pruning is lazy.
	SweepInterval time.Duration
}

// defaults mirror the reference behavior: 100 requests per 15 minutes.
const (
	DefaultMaxRequests    = 100
	DefaultWindowDuration = 15 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.WindowDuration <= 0 {
		c.WindowDuration = DefaultWindowDuration
	}
	if c.Scope == "" {
		c.Scope = ScopeKey
	}
}

// Controller is the primary admission gate.
//
// In ScopeKey mode it owns a registry of per-key windows, created on first
// use. In ScopeGlobal mode every key maps to one shared window. The registry
// mutex covers only map lookups and inserts; each window is its own critical
// section, so checks for different keys proceed in parallel.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	windows map[string]*Window
	global  *Window

	done      chan struct{}
	stopSweep sync.Once

	// now is shared with the windows this controller creates so tests can
	// drive the clock from one place.
	now func() time.Time
}

// NewController creates an admission controller. Zero config fields fall back
// to the reference defaults.
func NewController(cfg Config) *Controller {
	cfg.applyDefaults()

	c := &Controller{
		cfg:     cfg,
		logger:  slog.Default().With("component", "admission"),
		windows: make(map[string]*Window),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	c.global = c.newWindow()

	if cfg.SweepInterval > 0 && cfg.Scope == ScopeKey {
		go c.sweepLoop()
	}

	return c
}

// TryAdmit implements Gate. It never blocks and never fails; the only
// outcomes are Admitted and Denied.
func (c *Controller) TryAdmit(key string) Decision {
	return c.window(key).Admit()
}

// Window returns the window that would gate the given key. Exposed so the
// transport layer can report Retry-After and remaining-slot headers without
// consuming a slot.
func (c *Controller) Window(key string) *Window {
	return c.window(key)
}

// Config returns the effective configuration after defaulting.
func (c *Controller) Config() Config {
	return c.cfg
}

// Keys returns the keys with a registered window, in no particular order.
func (c *Controller) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.windows))
	for k := range c.windows {
		keys = append(keys, k)
	}
	return keys
}

// Restore loads previously persisted window state for a key. Stale entries
// are discarded by the window itself.
func (c *Controller) Restore(key string, stamps []time.Time) {
	c.window(key).Restore(stamps)
}

// Close stops the background sweep. Windows remain usable after Close.
func (c *Controller) Close() {
	c.stopSweep.Do(func() { close(c.done) })
}

func (c *Controller) window(key string) *Window {
	if c.cfg.Scope == ScopeGlobal {
		return c.global
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[key]
	if !ok {
		w = c.newWindow()
		c.windows[key] = w
	}
	return w
}

func (c *Controller) newWindow() *Window {
	w := NewWindow(c.cfg.MaxRequests, c.cfg.WindowDuration)
	w.now = func() time.Time { return c.now() }
	return w
}

// sweepLoop evicts windows that have fully drained. A window with no valid
// entries carries no admission state, so dropping it from the registry is
// indistinguishable from keeping it.
func (c *Controller) sweepLoop() {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			evicted := c.sweepIdle()
			if evicted > 0 {
				c.logger.Debug("evicted idle windows", "count", evicted)
			}
		}
	}
}

func (c *Controller) sweepIdle() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, w := range c.windows {
		if w.Len() == 0 {
			delete(c.windows, key)
			evicted++
		}
	}
	return evicted
}
