// Package prometheus renders goSession metrics in Prometheus text
// exposition format.
//
// Counter names are gosession_*_total; the single histogram is
// gosession_refresh_latency_seconds. A Manager source also renders the
// one-hot gosession_status gauge and gosession_server_healthy.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry (callers mount the Handler).
//   - Mutate Manager state.
package prometheus
