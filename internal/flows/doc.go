// Package flows contains pure-function orchestrators for the Manager's
// session operations.
//
// Each flow function (RunEstablish, RunValidate, RunSignOut) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. This keeps the Manager thin and lets every branch be tested
// with stub dependencies.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the profile, privilege and identity
// boundaries plus the checksum hasher. They do NOT own any of these
// resources; ownership stays with the Manager.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Transition session status; results are applied by the caller.
package flows
