// Package checksum derives and compares identity fingerprints used to decide
// whether two processes hold "the same" authenticated identity.
//
// # Fingerprint format
//
// The subject is serialized as canonical JSON {"id","email","created_at"}
// (created_at in RFC 3339 with nanoseconds, UTC) and digested. The output is
// lowercase hex. Two processes configured with the same [Digest] always agree.
//
// A checksum is an equality signal, never a credential.
//
// # What this package must NOT do
//
//   - Import goSession, session, or broadcast.
//   - Perform I/O.
package checksum
