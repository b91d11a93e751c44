// Package reachability produces raw online/offline observations for
// goSession.Manager. [DialProbe] opens a TCP connection to a known address
// on an interval and reports whether it succeeded.
//
// Observations are raw: every probe is reported, flaps included. The
// Manager debounces them.
package reachability
