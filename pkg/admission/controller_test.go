package admission

import (
	"sync"
	"testing"
	"time"
)

func newTestController(cfg Config) (*Controller, *fakeClock) {
	clock := newFakeClock()
	c := NewController(cfg)
	c.now = clock.Now
	return c, clock
}

func TestController_Defaults(t *testing.T) {
	c := NewController(Config{})
	defer c.Close()

	cfg := c.Config()
	if cfg.MaxRequests != 100 {
		t.Errorf("expected default MaxRequests 100, got %d", cfg.MaxRequests)
	}
	if cfg.WindowDuration != 15*time.Minute {
		t.Errorf("expected default WindowDuration 15m, got %v", cfg.WindowDuration)
	}
	if cfg.Scope != ScopeKey {
		t.Errorf("expected default scope %q, got %q", ScopeKey, cfg.Scope)
	}
}

// TestController_PerKeyIsolation verifies one client exhausting its quota
// does not affect another client's window.
func TestController_PerKeyIsolation(t *testing.T) {
	c, _ := newTestController(Config{MaxRequests: 2, WindowDuration: time.Minute})
	defer c.Close()

	if c.TryAdmit("alice") != Admitted || c.TryAdmit("alice") != Admitted {
		t.Fatal("expected alice's first two calls to be admitted")
	}
	if got := c.TryAdmit("alice"); got != Denied {
		t.Fatalf("expected alice to be denied at capacity, got %v", got)
	}

	if got := c.TryAdmit("bob"); got != Admitted {
		t.Fatalf("expected bob to be unaffected by alice's quota, got %v", got)
	}
}

// TestController_GlobalScope verifies the fallback mode shares one window
// across all keys.
func TestController_GlobalScope(t *testing.T) {
	c, _ := newTestController(Config{
		MaxRequests:    2,
		WindowDuration: time.Minute,
		Scope:          ScopeGlobal,
	})
	defer c.Close()

	if c.TryAdmit("alice") != Admitted || c.TryAdmit("bob") != Admitted {
		t.Fatal("expected first two global calls to be admitted")
	}
	if got := c.TryAdmit("carol"); got != Denied {
		t.Fatalf("expected global window to deny third caller, got %v", got)
	}
}

func TestController_WindowRecovery(t *testing.T) {
	c, clock := newTestController(Config{MaxRequests: 1, WindowDuration: time.Second})
	defer c.Close()

	if got := c.TryAdmit("k"); got != Admitted {
		t.Fatalf("expected Admitted, got %v", got)
	}
	if got := c.TryAdmit("k"); got != Denied {
		t.Fatalf("expected Denied, got %v", got)
	}

	clock.Advance(time.Second + time.Millisecond)
	if got := c.TryAdmit("k"); got != Admitted {
		t.Fatalf("expected Admitted after rollover, got %v", got)
	}
}

// TestController_ConcurrentKeys hammers many keys at once; each key must
// admit exactly its own maximum.
func TestController_ConcurrentKeys(t *testing.T) {
	c := NewController(Config{MaxRequests: 10, WindowDuration: time.Minute})
	defer c.Close()

	keys := []string{"a", "b", "c", "d"}
	const callsPerKey = 50

	admitted := make(map[string]*int64)
	var mu sync.Mutex
	for _, k := range keys {
		var n int64
		admitted[k] = &n
	}

	var wg sync.WaitGroup
	for _, key := range keys {
		for i := 0; i < callsPerKey; i++ {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				if c.TryAdmit(key) == Admitted {
					mu.Lock()
					*admitted[key]++
					mu.Unlock()
				}
			}(key)
		}
	}
	wg.Wait()

	for _, key := range keys {
		if got := *admitted[key]; got != 10 {
			t.Errorf("key %q: expected exactly 10 admitted, got %d", key, got)
		}
	}
}

func TestController_SweepEvictsIdleWindows(t *testing.T) {
	c, clock := newTestController(Config{MaxRequests: 5, WindowDuration: time.Second})
	defer c.Close()

	c.TryAdmit("transient")
	c.TryAdmit("active")

	if got := len(c.Keys()); got != 2 {
		t.Fatalf("expected 2 registered windows, got %d", got)
	}

	// Let both drain, then keep one active.
	clock.Advance(2 * time.Second)
	c.TryAdmit("active")

	if evicted := c.sweepIdle(); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	keys := c.Keys()
	if len(keys) != 1 || keys[0] != "active" {
		t.Fatalf("expected only the active window to survive, got %v", keys)
	}

	// Eviction carries no admission state: the key starts a fresh window.
	if got := c.TryAdmit("transient"); got != Admitted {
		t.Fatalf("expected evicted key to be admitted on return, got %v", got)
	}
}

func TestPassGate_NeverDenies(t *testing.T) {
	g := NewPassGate()
	for i := 0; i < 1000; i++ {
		if got := g.TryAdmit("any"); got != Admitted {
			t.Fatalf("call %d: pass gate denied", i)
		}
	}
}

// TestPipeline verifies ordering and short-circuit behavior of gate stages.
func TestPipeline(t *testing.T) {
	full, _ := newTestController(Config{MaxRequests: 1, WindowDuration: time.Minute})
	defer full.Close()
	full.TryAdmit("k")

	open, _ := newTestController(Config{MaxRequests: 100, WindowDuration: time.Minute})
	defer open.Close()

	tests := []struct {
		name string
		p    Pipeline
		want Decision
	}{
		{"empty admits", Pipeline{}, Admitted},
		{"pass gate only", Pipeline{NewPassGate()}, Admitted},
		{"open then pass", Pipeline{open, NewPassGate()}, Admitted},
		{"full denies", Pipeline{full, NewPassGate()}, Denied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.TryAdmit("k"); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDecision_String(t *testing.T) {
	if Admitted.String() != "admitted" || Denied.String() != "denied" {
		t.Errorf("unexpected Decision strings: %q, %q", Admitted, Denied)
	}
}
