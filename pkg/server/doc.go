// Package server assembles the relay's HTTP surface: the middleware chain,
// route registration, and graceful lifecycle management.
//
// # Overview
//
// The middleware chain, outermost first:
//
//	Recovery > Logging > RequestID > Metrics > CORS > SecurityHeaders > Timeout > Admission
//
// Admission runs innermost so denied requests are still logged, measured,
// and carry a request ID. Routes:
//
//	POST /v1/chat   chat relay (gated by admission)
//	GET  /health    liveness probe (ungated)
//	GET  /ready     readiness probe (ungated)
//	GET  /metrics   Prometheus scrape endpoint (ungated, optional)
//
// # Thread Safety
//
// Server methods are safe for concurrent use. Start blocks until shutdown;
// Shutdown may be called from any goroutine.
package server
