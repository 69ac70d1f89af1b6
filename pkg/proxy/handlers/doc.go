// Package handlers contains the relay's HTTP endpoint handlers: the chat
// endpoint that forwards admitted requests upstream, and the health and
// readiness probes.
package handlers
