// Package audit relays session lifecycle events to a caller-supplied sink
// without blocking the state machine.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, slog, no-op).
//   - [Dispatcher]: ordered relay that stamps id, sequence, time and origin.
//     Routine events may be dropped when full; session-ending ones wait.
//   - [Event]: one lifecycle record with a status change and metadata.
//
// # What this package must NOT do
//
//   - Decide which events to emit; that belongs to the Manager.
//   - Import goSession or any sibling internal package.
package audit
