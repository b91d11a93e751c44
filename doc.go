// Package goSession manages the client-side lifecycle of an authenticated
// session: establishing it, refreshing it ahead of expiry, validating its
// integrity, keeping sibling instances converged and tearing it down.
//
// A [Manager] is built once through [Builder.Build] and then mounted with
// [Manager.Initialize]. All methods are safe to call from multiple
// goroutines. State is published through [Manager.Snapshot] and
// [Manager.Subscribe]; nothing else may mutate it.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config],
// the closed [Error] type and the boundary interfaces the host application
// implements ([IdentityProvider], [ProfileProvider], [HealthChecker],
// [PrivilegeChecker], [Navigator]). Timers, retries, debounce and cross-tab
// coordination live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Hold a lock while calling any boundary interface.
//   - Let a failure escape a timer callback; every timer path writes state.
//   - Apply a peer's checksum directly; peers only trigger a refresh.
//   - Mutate state after [Manager.Close].
package goSession
