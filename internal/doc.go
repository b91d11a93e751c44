// Package internal groups the private machinery behind the goSession
// Manager.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - crosstab: broadcast receive filtering and checksum comparison
//   - flows: pure-function orchestrators for establish, validate and sign-out
//   - health: periodic backend health poller
//   - netmon: debounced online/offline monitor
//   - retry: single-flight refresh controller with cooldown and backoff
//   - schedule: expiry-driven and idle refresh timers
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
