// Package otel binds goSession counters to OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per counter and one
// cumulative bucket gauge whose points carry an "le" attribute. A Manager
// source also gets gosession_authenticated and gosession_server_healthy.
// One callback reads the snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider (callers supply the Meter).
//   - Mutate Manager state.
package otel
