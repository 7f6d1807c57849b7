// Package store is the SQLite journal of patches and events handled by a
// bridge.
//
// The journal is append-only:
//   - patches: every patch in arrival order, with the error code it failed with
//   - events: every event, with its delivery outcome
//
// # Ordering
//
// Rows are keyed by seq, the bridge's logical clock. All reads use
// ORDER BY seq ASC so that replay sees exactly the order the bridge did.
// Writes use ON CONFLICT(seq) DO NOTHING, so re-writing a record is a no-op.
//
// # Payloads
//
// Patch and event payloads are stored in the wire encoding (internal/wire),
// the same bytes a host would send.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
