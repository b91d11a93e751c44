// Package retry implements the refresh Retry Controller: one logical
// "refresh the session" operation guarded by a mutual-exclusion flag, a
// cooldown between attempts, and a backoff table for rate-limit failures.
//
// # Ordering
//
// At most one Attempt call is outstanding at any time. A trigger that
// arrives while one is in flight is dropped, not queued. The in-flight flag
// is always cleared before a follow-up timer is armed or a hook runs.
//
// # What this package must NOT do
//
//   - Classify errors itself; the caller supplies Retryable.
//   - Import goSession or any sibling internal package other than clock.
package retry
