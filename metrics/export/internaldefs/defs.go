package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one goSession counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one goSession histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricInitialize, Name: "gosession_initialize_total", Help: "Initialize runs that performed a session check."},
	{ID: goSession.MetricTransition, Name: "gosession_transition_total", Help: "Committed status transitions."},
	{ID: goSession.MetricIllegalTransition, Name: "gosession_illegal_transition_total", Help: "Rejected status transitions."},
	{ID: goSession.MetricRefreshAttempt, Name: "gosession_refresh_attempt_total", Help: "Refresh calls made to the identity provider."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Refreshes that re-established the session."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Refreshes that failed terminally."},
	{ID: goSession.MetricRefreshRateLimited, Name: "gosession_refresh_rate_limited_total", Help: "Refresh calls rejected by rate limiting."},
	{ID: goSession.MetricRefreshRetryScheduled, Name: "gosession_refresh_retry_scheduled_total", Help: "Backoff retries armed."},
	{ID: goSession.MetricRefreshDropped, Name: "gosession_refresh_dropped_total", Help: "Refresh triggers dropped while another was in flight."},
	{ID: goSession.MetricRefreshDeferred, Name: "gosession_refresh_deferred_total", Help: "Refresh triggers deferred by the cooldown."},
	{ID: goSession.MetricRefreshSkipped, Name: "gosession_refresh_skipped_total", Help: "Refresh triggers skipped while offline, closed or past the retry ceiling."},
	{ID: goSession.MetricRefreshExhausted, Name: "gosession_refresh_exhausted_total", Help: "Refresh cycles that hit the retry ceiling."},
	{ID: goSession.MetricSessionInvalid, Name: "gosession_session_invalid_total", Help: "Sessions rejected by integrity checks."},
	{ID: goSession.MetricForcedSignOut, Name: "gosession_forced_sign_out_total", Help: "Sign-outs forced by integrity failures."},
	{ID: goSession.MetricSignedOut, Name: "gosession_signed_out_total", Help: "Held sessions cleared."},
	{ID: goSession.MetricCrossTabBroadcast, Name: "gosession_crosstab_broadcast_total", Help: "Checksums published to peers."},
	{ID: goSession.MetricCrossTabReceived, Name: "gosession_crosstab_received_total", Help: "Peer session updates received."},
	{ID: goSession.MetricCrossTabMismatch, Name: "gosession_crosstab_mismatch_total", Help: "Peer checksums that differed from the local one."},
	{ID: goSession.MetricNetworkOnline, Name: "gosession_network_online_total", Help: "Settled transitions to online."},
	{ID: goSession.MetricNetworkOffline, Name: "gosession_network_offline_total", Help: "Settled transitions to offline."},
	{ID: goSession.MetricHealthHealthy, Name: "gosession_health_healthy_total", Help: "Health checks that reported healthy."},
	{ID: goSession.MetricHealthUnhealthy, Name: "gosession_health_unhealthy_total", Help: "Health checks that reported unhealthy."},
	{ID: goSession.MetricIdleValidation, Name: "gosession_idle_validation_total", Help: "Refreshes triggered by idle validation."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRefreshLatency, Name: "gosession_refresh_latency_seconds", Help: "Identity provider refresh latency."},
}

// HistogramBounds are the upper bounds of the 8 buckets, in seconds.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed 8-bucket array, zero-filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
