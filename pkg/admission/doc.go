// Package admission decides whether an inbound request may proceed to the
// protected upstream action (a call to the language-model provider).
//
// # Overview
//
// The package implements a rolling-window admission controller: each window
// records the arrival timestamps of admitted requests, lazily prunes entries
// older than the window duration on every check, and denies once the pruned
// count reaches the configured maximum. A denied check never consumes a slot.
//
// Two gates share the Gate interface:
//
//   - Controller: the primary rolling-window gate, scoped per client key by
//     default with an optional process-wide global mode
//   - PassGate: an always-admit placeholder for graduated-response policies
//     (delay or tiered limits can be substituted without touching call sites)
//
// # Usage
//
//	ctrl := admission.NewController(admission.Config{
//	    MaxRequests:    100,
//	    WindowDuration: 15 * time.Minute,
//	})
//	if ctrl.TryAdmit("client-key") == admission.Denied {
//	    // map to HTTP 429 at the transport layer
//	}
//
// # Thread Safety
//
// The prune/check/append sequence is a single critical section per window.
// Windows for different keys are independent critical sections and do not
// contend on a shared lock; the controller's registry lock covers map access
// only.
package admission
