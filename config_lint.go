package goSession

import "fmt"

// LintSeverity ranks a LintWarning.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
)

// LintWarning flags a valid but questionable setting.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that pass Validate but are likely mistakes.
func (c *Config) Lint() LintResult {
	var out LintResult

	if c.Refresh.Buffer < c.Refresh.RequestTimeout {
		out = append(out, LintWarning{
			Code:     "buffer_below_request_timeout",
			Severity: LintWarn,
			Message:  fmt.Sprintf("refresh buffer %v is shorter than request timeout %v; a slow refresh can land after expiry", c.Refresh.Buffer, c.Refresh.RequestTimeout),
		})
	}
	if n := len(c.Refresh.Backoff); n > 0 && c.Refresh.Cooldown > c.Refresh.Backoff[0] {
		out = append(out, LintWarning{
			Code:     "cooldown_exceeds_backoff",
			Severity: LintWarn,
			Message:  fmt.Sprintf("cooldown %v exceeds first backoff %v; retries will be deferred", c.Refresh.Cooldown, c.Refresh.Backoff[0]),
		})
	}
	if c.Refresh.MaxRetries > len(c.Refresh.Backoff)+1 {
		out = append(out, LintWarning{
			Code:     "backoff_table_short",
			Severity: LintInfo,
			Message:  "later retries reuse the last backoff entry",
		})
	}
	if c.Idle.Interval > 0 && c.Idle.Threshold >= c.Idle.Interval {
		out = append(out, LintWarning{
			Code:     "idle_threshold_unreachable",
			Severity: LintInfo,
			Message:  "idle threshold is not shorter than the check interval",
		})
	}
	if c.Health.Interval > 0 && c.Health.Timeout >= c.Health.Interval {
		out = append(out, LintWarning{
			Code:     "health_timeout_long",
			Severity: LintWarn,
			Message:  "health timeout is not shorter than the poll interval",
		})
	}
	if c.Checksum.Digest == "fallback" {
		out = append(out, LintWarning{
			Code:     "checksum_fallback",
			Severity: LintInfo,
			Message:  "non-cryptographic checksum digest in use",
		})
	}
	return out
}
