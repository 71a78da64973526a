// Package store provides SQLite-backed persistence for gatehouse.
//
// Two tables:
//   - completed_rooms: one row per room the player has solved
//   - events: append-only observation log, one row per emitted event
//
// # Critical Patterns
//
// Idempotent writes
//   - Marking a room completed twice keeps the first session
//   - Event ids are content-addressed, so re-appending an event is a no-op
//
// Logical time
//   - Events are ordered by seq INTEGER (logical clock), NEVER timestamps
//   - All reads use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Event ids are computed by ir.EventID using RFC 8785 canonical JSON and
// SHA-256 with domain separation.
package store
