package admission

import (
	"sync"
	"testing"
	"time"
)

// fakeClock drives a window deterministically from a base instant.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestWindow(max int, duration time.Duration) (*Window, *fakeClock) {
	clock := newFakeClock()
	w := NewWindow(max, duration)
	w.now = clock.Now
	return w, clock
}

// TestWindow_BoundedAdmission verifies that at most max calls are admitted
// within a single window and every further call is denied.
func TestWindow_BoundedAdmission(t *testing.T) {
	w, _ := newTestWindow(5, time.Minute)

	for i := 0; i < 5; i++ {
		if got := w.Admit(); got != Admitted {
			t.Fatalf("call %d: expected Admitted, got %v", i, got)
		}
	}

	for i := 0; i < 20; i++ {
		if got := w.Admit(); got != Denied {
			t.Fatalf("overflow call %d: expected Denied, got %v", i, got)
		}
	}
}

// TestWindow_Recovery verifies the window fully rolls over once the window
// duration has elapsed past the burst.
func TestWindow_Recovery(t *testing.T) {
	w, clock := newTestWindow(3, time.Minute)

	for i := 0; i < 3; i++ {
		if got := w.Admit(); got != Admitted {
			t.Fatalf("call %d: expected Admitted, got %v", i, got)
		}
	}
	if got := w.Admit(); got != Denied {
		t.Fatalf("expected Denied at capacity, got %v", got)
	}

	clock.Advance(time.Minute + time.Millisecond)

	if got := w.Admit(); got != Admitted {
		t.Fatalf("expected Admitted after window rollover, got %v", got)
	}
}

// TestWindow_PartialExpiry verifies pruning removes only entries older than
// the window, not the entire history.
func TestWindow_PartialExpiry(t *testing.T) {
	w, clock := newTestWindow(2, 1000*time.Millisecond)

	if got := w.Admit(); got != Admitted { // t=0
		t.Fatalf("t=0: expected Admitted, got %v", got)
	}

	clock.Advance(600 * time.Millisecond)
	if got := w.Admit(); got != Admitted { // t=600
		t.Fatalf("t=600: expected Admitted, got %v", got)
	}

	// t=900: both entries valid, full.
	clock.Advance(300 * time.Millisecond)
	if got := w.Admit(); got != Denied {
		t.Fatalf("t=900: expected Denied, got %v", got)
	}

	// t=1100: the t=0 entry has expired, the t=600 entry has not.
	clock.Advance(200 * time.Millisecond)
	if got := w.Admit(); got != Admitted {
		t.Fatalf("t=1100: expected Admitted, got %v", got)
	}
	if n := w.Len(); n != 2 {
		t.Fatalf("t=1100: expected 2 valid entries, got %d", n)
	}
}

// TestWindow_DenialDoesNotRecord verifies a denied call adds no timestamp:
// retrying at the same instant after capacity frees exactly one slot, not
// fewer.
func TestWindow_DenialDoesNotRecord(t *testing.T) {
	w, clock := newTestWindow(2, time.Second)

	w.Admit()
	w.Admit()

	before := w.Len()
	for i := 0; i < 10; i++ {
		if got := w.Admit(); got != Denied {
			t.Fatalf("denied call %d: expected Denied, got %v", i, got)
		}
	}
	if after := w.Len(); after != before {
		t.Fatalf("denied calls mutated the window: %d -> %d entries", before, after)
	}

	// Exactly one slot frees when exactly one entry expires.
	clock.Advance(time.Second + time.Millisecond)
	if got := w.Admit(); got != Admitted {
		t.Fatalf("expected Admitted after expiry, got %v", got)
	}
}

// TestWindow_BurstHitsLimit: max=2, window=1000ms, calls at t=0,10,20.
func TestWindow_BurstHitsLimit(t *testing.T) {
	w, clock := newTestWindow(2, 1000*time.Millisecond)

	steps := []struct {
		advance time.Duration
		want    Decision
	}{
		{0, Admitted},
		{10 * time.Millisecond, Admitted},
		{10 * time.Millisecond, Denied},
	}

	for i, step := range steps {
		clock.Advance(step.advance)
		if got := w.Admit(); got != step.want {
			t.Fatalf("call %d: expected %v, got %v", i, step.want, got)
		}
	}
}

// TestWindow_RolloverAdmitsAgain: max=2, window=1000ms, calls at t=0,10 admitted, then
// t=1050 admitted again.
func TestWindow_RolloverAdmitsAgain(t *testing.T) {
	w, clock := newTestWindow(2, 1000*time.Millisecond)

	if got := w.Admit(); got != Admitted {
		t.Fatalf("t=0: expected Admitted, got %v", got)
	}
	clock.Advance(10 * time.Millisecond)
	if got := w.Admit(); got != Admitted {
		t.Fatalf("t=10: expected Admitted, got %v", got)
	}
	clock.Advance(1040 * time.Millisecond)
	if got := w.Admit(); got != Admitted {
		t.Fatalf("t=1050: expected Admitted after rollover, got %v", got)
	}
}

// TestWindow_ConcurrentBurstExactCap: 1000 simultaneous calls against max=100 admit
// exactly 100, never more. Validates the atomic critical section.
func TestWindow_ConcurrentBurstExactCap(t *testing.T) {
	w := NewWindow(100, 15*time.Minute)

	const calls = 1000
	var admitted, denied int64
	var mu sync.Mutex

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(calls)

	for i := 0; i < calls; i++ {
		go func() {
			defer wg.Done()
			<-start
			d := w.Admit()
			mu.Lock()
			if d == Admitted {
				admitted++
			} else {
				denied++
			}
			mu.Unlock()
		}()
	}

	close(start)
	wg.Wait()

	if admitted != 100 {
		t.Errorf("expected exactly 100 admitted, got %d", admitted)
	}
	if denied != 900 {
		t.Errorf("expected exactly 900 denied, got %d", denied)
	}
}

func TestWindow_RetryAfter(t *testing.T) {
	w, clock := newTestWindow(1, time.Minute)

	if got := w.RetryAfter(); got != 0 {
		t.Fatalf("empty window: expected RetryAfter 0, got %v", got)
	}

	w.Admit()
	clock.Advance(20 * time.Second)

	want := 40 * time.Second
	if got := w.RetryAfter(); got != want {
		t.Fatalf("expected RetryAfter %v, got %v", want, got)
	}
}

func TestWindow_SnapshotRestore(t *testing.T) {
	w, clock := newTestWindow(3, time.Minute)

	w.Admit()
	clock.Advance(10 * time.Second)
	w.Admit()

	snap := w.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 snapshot entries, got %d", len(snap))
	}

	// Restore into a fresh window sharing the same clock.
	fresh := NewWindow(3, time.Minute)
	fresh.now = clock.Now
	fresh.Restore(snap)

	if n := fresh.Len(); n != 2 {
		t.Fatalf("expected 2 restored entries, got %d", n)
	}

	if got := fresh.Admit(); got != Admitted {
		t.Fatalf("expected one free slot after restore, got %v", got)
	}
	if got := fresh.Admit(); got != Denied {
		t.Fatalf("expected Denied at restored capacity, got %v", got)
	}

	// Entries beyond the window are discarded on restore.
	clock.Advance(2 * time.Minute)
	stale := NewWindow(3, time.Minute)
	stale.now = clock.Now
	stale.Restore(snap)
	if n := stale.Len(); n != 0 {
		t.Fatalf("expected stale snapshot to restore empty, got %d entries", n)
	}
}
