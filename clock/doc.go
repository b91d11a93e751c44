// Package clock abstracts wall time and one-shot timers so that every
// scheduling decision in goSession can be driven deterministically in tests.
//
// # Architecture boundaries
//
// This package owns time sources only. It does NOT know about sessions,
// refresh policy, or retries; those live in the root package and internal/.
//
// # What this package must NOT do
//
//   - Import goSession or any sibling package.
//   - Start goroutines other than the ones time.AfterFunc starts for [Real].
package clock
