// Package middleware exposes HTTP middleware that gates handlers on the
// state of a goSession.Manager.
//
// # Guards
//
//   - [RequireAuthenticated]: the Manager holds a session.
//   - [RequireStrict]: the Manager holds a session and its checksum still
//     matches the held user.
//   - [RequireAdmin]: authenticated, plus the cached admin flag.
//
// Each guard reads a Snapshot, rejects with 401 or 403, and injects the
// Snapshot into the request context for the wrapped handler.
//
// # Architecture boundaries
//
// This package translates Manager state into HTTP answers. It does NOT
// refresh, sign out, or call any boundary; every decision comes from the
// Manager's read-only accessors.
//
// # What this package must NOT do
//
//   - Mutate Manager state.
//   - Trust a request header for identity.
package middleware
