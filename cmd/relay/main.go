// Relay is a rate-limited chat proxy for LLM APIs.
//
// It sits between chat clients and an upstream completion API, admitting
// requests through a rolling-window rate limiter, validating message
// payloads, and recording every admission decision.
//
// Usage:
//
//	# Start with default configuration
//	relay run
//
//	# Start with a custom configuration file
//	relay run --config /etc/relay/relay.yaml
//
//	# Validate configuration without starting
//	relay run --dry-run
//
//	# Show version information
//	relay version
package main

func main() {
	Execute()
}
