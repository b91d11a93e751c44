// Package healthcheck is the HTTP side of backend health: a [Checker] that
// implements goSession.HealthChecker against a JSON endpoint, and a
// [Handler] that serves the same document.
//
// Wire format:
//
//	{"healthy": true, "services": {"auth": true}, "message": ""}
//
// A non-2xx answer is returned as a [StatusError] so goSession.Classify
// can map it by status code.
//
// # What this package must NOT do
//
//   - Change Manager state (the Manager decides what a report means).
//   - Retry (the health poller runs on its own interval).
package healthcheck
