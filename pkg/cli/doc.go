// Package cli provides shared helpers for the relay command line: typed
// errors and signal-aware contexts.
package cli
