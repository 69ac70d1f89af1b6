// Package audit records admission decisions for later inspection.
//
// # Overview
//
// Every gate decision (admitted or denied) can be written to durable storage
// as a DecisionRecord. Records answer questions like "which clients are being
// throttled" and "how close is the fleet to its quota" without scraping logs.
//
// The package has three parts:
//
//   - Storage: the persistence interface, with SQLite and in-memory
//     implementations.
//   - Recorder: an asynchronous writer that accepts records on the request
//     path without blocking on the database.
//   - Pruner / Scheduler: retention enforcement on a cron schedule.
//
// # Thread Safety
//
// All exported types are safe for concurrent use. The Recorder hands records
// to a single background worker over a buffered channel; when the buffer is
// full, records are dropped and counted rather than blocking a request.
package audit
