package store

import (
	"context"
	"time"
)

// Backend defines the interface for window state persistence.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Save persists the window state for a key, replacing any existing
	// state for that key.
	Save(ctx context.Context, state *WindowState) error

	// Load retrieves the window state for a key.
	// Returns nil with no error if no state exists.
	Load(ctx context.Context, key string) (*WindowState, error)

	// Delete removes the window state for a key. No-op if absent.
	Delete(ctx context.Context, key string) error

	// List returns all persisted window states.
	List(ctx context.Context) ([]*WindowState, error)

	// Cleanup removes states not updated since the given time.
	// Returns the number of entries removed.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases backend resources. The backend must not be used
	// after Close.
	Close() error
}

// WindowState is the persisted form of one admission window.
type WindowState struct {
	// Key is the client identity the window is scoped to. The global
	// window persists under a reserved key chosen by the caller.
	Key string

	// Stamps are the admitted-request timestamps, oldest first.
	Stamps []time.Time

	// LastUpdated is when this state was last written.
	LastUpdated time.Time
}
