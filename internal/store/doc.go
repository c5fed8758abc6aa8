// Package store provides SQLite-backed durable storage for incident
// (BTrack) records.
//
// # Ordering
//
// Listings are newest first: ORDER BY created_at DESC, id ASC COLLATE BINARY.
// The id tie-break keeps results identical for records created in the same
// instant.
//
// # Encoding
//
// Step logs are stored as canonical JSON (internal/ir MarshalCanonical).
// Error lists are stored as a JSON array and read back through
// btrack.ParseErrors, so rows written by other producers in the legacy
// formats (plain text, a bare JSON value) still load.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
