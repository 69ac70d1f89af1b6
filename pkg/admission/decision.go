package admission

// Decision is the outcome of an admission check.
//
// Admitted guarantees the caller may proceed to the protected action exactly
// once for this call. Denied guarantees the protected action is not invoked
// for this call. There are no other outcomes: the controller never fails.
type Decision int

const (
	// Denied means the request must not proceed to the protected action.
	Denied Decision = iota

	// Admitted means the request consumed one window slot and may proceed.
	Admitted
)

// String returns a human-readable form for logs and metrics labels.
func (d Decision) String() string {
	if d == Admitted {
		return "admitted"
	}
	return "denied"
}

// Gate is the shared shape of every admission stage.
//
// Implementations must be safe for concurrent use and must not block: a check
// completes in time proportional to the number of stale entries pruned.
type Gate interface {
	// TryAdmit decides whether the request identified by key may proceed.
	// Not idempotent: each call either consumes one slot or is rejected.
	TryAdmit(key string) Decision
}

// Pipeline runs gates in order and admits only when every stage admits.
//
// Stages must be ordered cheapest-first; evaluation stops at the first
// denial. An empty pipeline admits everything.
type Pipeline []Gate

// TryAdmit implements Gate.
func (p Pipeline) TryAdmit(key string) Decision {
	for _, g := range p {
		if g.TryAdmit(key) == Denied {
			return Denied
		}
	}
	return Admitted
}
