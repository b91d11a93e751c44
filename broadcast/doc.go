// Package broadcast carries session-change notices between instances of the
// session manager that share an origin (tabs of one browser profile,
// processes on one host, replicas behind one Redis).
//
// # Wire format
//
// Messages are JSON objects {"type","checksum","timestamp","origin"} where
// timestamp is Unix milliseconds and origin identifies the sending instance.
//
// # Transports
//
//   - [Hub]: in-process named channels. A post is delivered to every other
//     endpoint with the same name, synchronously, on the posting goroutine.
//   - [RedisChannel]: Redis PUBLISH/SUBSCRIBE. Delivery includes the sender;
//     receivers filter by origin.
//
// # What this package must NOT do
//
//   - Interpret checksums or trigger refreshes.
//   - Import goSession or session.
package broadcast
