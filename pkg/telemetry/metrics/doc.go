// Package metrics exposes Prometheus metrics for the relay.
//
// # Overview
//
// The Collector owns a dedicated Prometheus registry and the metric families
// for admission decisions, HTTP traffic, and upstream provider calls. It is
// wired into the middleware chain via RecordDecision and RecordHTTPRequest,
// and exposed for scraping with Handler.
//
// # Thread Safety
//
// All recording methods are safe for concurrent use; they delegate to
// prometheus client types which are themselves concurrency-safe.
package metrics
