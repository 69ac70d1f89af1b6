// Package store persists admission window state across process restarts.
//
// A restart would otherwise reset every client's quota mid-window. The store
// lets the controller snapshot window contents after admission checks and
// restore them at startup; timestamps that fell out of the window while the
// process was down are discarded on restore by the window itself.
//
// Two backends implement the Backend interface:
//
//   - MemoryBackend: map-based, no persistence, for tests and deployments
//     that accept quota reset on restart
//   - SQLiteBackend: durable single-file storage (modernc.org/sqlite, WAL
//     mode, prepared statements) for single-instance deployments
//
// Persistence is best effort: a failed save never blocks or fails an
// admission decision.
package store
