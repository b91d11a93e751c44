// Package session provides the client-side session data model and the
// durable flag store used for synchronous fast-path checks.
//
// # Data model
//
// [Session] is the opaque record handed out by the identity provider. [User]
// is the immutable projection the Manager builds on every transition into the
// authenticated state.
//
// # Flag storage
//
// [FlagStore] is a cache, never the source of truth. [MemoryStore] keeps
// flags in process; [RedisStore] keeps them in Redis under a key prefix so
// several processes on one host share them.
//
// # What this package must NOT do
//
//   - Import goSession, checksum, or broadcast (no upward imports).
//   - Decide authentication state; it only stores what it is given.
package session
