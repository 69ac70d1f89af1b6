package admission

import (
	"sync"
	"time"
)

// Window is a rolling-window request counter for a single logical client.
//
// It records the arrival timestamps of admitted requests and prunes entries
// older than the window duration lazily on each check. The timestamp slice
// holds at most max entries at any time (a denied check records nothing), so
// memory is bounded even when traffic stops after a burst and no further
// pruning runs.
//
// # Algorithm
//
//  1. Take the current time
//  2. Drop all recorded timestamps older than now minus the window duration
//  3. If the remaining count has reached the maximum, deny without recording
//  4. Otherwise record now and admit
//
// # Thread Safety
//
// Window is thread-safe using sync.Mutex. Prune, count check, and append
// happen under one lock acquisition; two racing checks can never both be
// admitted into the last free slot.
type Window struct {
	max      int
	duration time.Duration
	stamps   []time.Time
	mu       sync.Mutex

	// now is replaceable in tests for deterministic window arithmetic.
	now func() time.Time
}

// NewWindow creates a rolling window admitting at most max requests per
// duration.
func NewWindow(max int, duration time.Duration) *Window {
	return &Window{
		max:      max,
		duration: duration,
		now:      time.Now,
	}
}

// TryAdmit implements Gate for a single unscoped window. The key is ignored;
// the Controller handles per-key scoping.
func (w *Window) TryAdmit(string) Decision {
	return w.Admit()
}

// Admit runs one admission check against the window.
func (w *Window) Admit() Decision {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.pruneLocked(now)

	if len(w.stamps) >= w.max {
		return Denied
	}

	w.stamps = append(w.stamps, now)
	return Admitted
}

// Len returns the number of still-valid entries, pruning first.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())
	return len(w.stamps)
}

// Remaining returns how many slots are free in the current window.
func (w *Window) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())
	if n := w.max - len(w.stamps); n > 0 {
		return n
	}
	return 0
}

// RetryAfter returns how long a denied caller should wait before the oldest
// entry expires and a slot frees up. Returns 0 when a slot is already free.
func (w *Window) RetryAfter() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.pruneLocked(now)

	if len(w.stamps) < w.max {
		return 0
	}
	return w.stamps[0].Add(w.duration).Sub(now)
}

// Snapshot returns a copy of the still-valid timestamps, oldest first.
// Used by the state store to persist window contents.
func (w *Window) Snapshot() []time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())
	out := make([]time.Time, len(w.stamps))
	copy(out, w.stamps)
	return out
}

// Restore replaces the window contents with previously persisted timestamps.
// Entries outside the current window are dropped; the rest are kept in
// insertion order, capped at max.
func (w *Window) Restore(stamps []time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stamps = w.stamps[:0]
	cutoff := w.now().Add(-w.duration)
	for _, ts := range stamps {
		if ts.After(cutoff) && len(w.stamps) < w.max {
			w.stamps = append(w.stamps, ts)
		}
	}
}

// pruneLocked drops timestamps older than now minus the window duration.
// Timestamps are non-decreasing in insertion order, so expired entries form
// a prefix. Caller must hold the lock.
func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.duration)

	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}
