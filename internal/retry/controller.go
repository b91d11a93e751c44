package retry

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrEthical07/goSession/clock"
)

// Result describes what one Refresh call did.
type Result uint8

const (
	// ResultSucceeded means Attempt returned nil.
	ResultSucceeded Result = iota
	// ResultSkipped means the controller was closed, suspended, or the
	// attempt number reached the retry ceiling.
	ResultSkipped
	// ResultDropped means another attempt was already in flight.
	ResultDropped
	// ResultDeferred means the call landed inside the cooldown window and
	// was rescheduled for when the window ends.
	ResultDeferred
	// ResultRetryScheduled means Attempt hit a retryable failure and the
	// next attempt is armed.
	ResultRetryScheduled
	// ResultFailed means Attempt failed terminally.
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSucceeded:
		return "succeeded"
	case ResultSkipped:
		return "skipped"
	case ResultDropped:
		return "dropped"
	case ResultDeferred:
		return "deferred"
	case ResultRetryScheduled:
		return "retry_scheduled"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config holds retry tuning.
type Config struct {
	MaxRetries int
	Backoff    []time.Duration
	Cooldown   time.Duration
}

// Hooks connects the controller to its owner.
type Hooks struct {
	// Attempt performs the refresh and applies its result.
	Attempt func(ctx context.Context) error
	// Retryable reports whether err should be retried with backoff.
	Retryable func(err error) bool
	// AfterSuccess runs after a successful attempt, outside the lock.
	AfterSuccess func()
	// OnTerminal runs after a terminal failure, outside the lock. attempts
	// counts the attempts made in this cycle; exhausted is true when the
	// retry ceiling was reached.
	OnTerminal func(err error, attempts int, exhausted bool)
	// Observe is told about every Refresh outcome.
	Observe func(result Result, attempt int, delay time.Duration)
}

// PendingRetry is the per-cycle retry record. It exists only while a retry
// is owed.
type PendingRetry struct {
	Attempt     int
	LastAttempt time.Time
}

// state is everything the controller mutates. It is only touched with
// Controller.mu held.
type state struct {
	inFlight  bool
	pending   *PendingRetry
	timer     clock.Timer
	suspended bool
	closed    bool
}

// Controller serializes refresh attempts.
type Controller struct {
	clock clock.Clock
	cfg   Config
	hooks Hooks
	base  context.Context

	// cooldown holds one token per Cooldown. It is always driven with
	// explicit times from clock so a fake clock controls it.
	cooldown *rate.Limiter

	mu    sync.Mutex
	state state
}

// New returns a Controller. base is the context used for attempts fired
// from timers.
func New(base context.Context, c clock.Clock, cfg Config, hooks Hooks) *Controller {
	if base == nil {
		base = context.Background()
	}
	if c == nil {
		c = clock.Real()
	}
	return &Controller{
		clock:    c,
		cfg:      cfg,
		hooks:    hooks,
		base:     base,
		cooldown: rate.NewLimiter(rate.Every(cfg.Cooldown), 1),
	}
}

// Refresh runs attempt number attempt (0-based) unless the controller is
// closed, suspended, busy, or still cooling down.
func (c *Controller) Refresh(ctx context.Context, attempt int) Result {
	if ctx == nil {
		ctx = c.base
	}

	c.mu.Lock()
	if c.state.closed || c.state.suspended || attempt >= c.cfg.MaxRetries {
		c.mu.Unlock()
		c.observe(ResultSkipped, attempt, 0)
		return ResultSkipped
	}
	if c.state.inFlight {
		c.mu.Unlock()
		c.observe(ResultDropped, attempt, 0)
		return ResultDropped
	}

	now := c.clock.Now()
	res := c.cooldown.ReserveN(now, 1)
	// Sub-millisecond residue from the limiter's float arithmetic is not a
	// deferral.
	if remaining := res.DelayFrom(now).Round(time.Millisecond); remaining > 0 {
		res.CancelAt(now)
		c.armLocked(remaining, attempt)
		c.mu.Unlock()
		c.observe(ResultDeferred, attempt, remaining)
		return ResultDeferred
	}

	c.state.inFlight = true
	c.stopTimerLocked()
	c.mu.Unlock()

	err := c.hooks.Attempt(ctx)

	c.mu.Lock()
	c.state.inFlight = false
	if c.state.closed {
		c.state.pending = nil
		c.mu.Unlock()
		c.observe(ResultSkipped, attempt, 0)
		return ResultSkipped
	}

	if err == nil {
		c.state.pending = nil
		c.mu.Unlock()
		if c.hooks.AfterSuccess != nil {
			c.hooks.AfterSuccess()
		}
		c.observe(ResultSucceeded, attempt, 0)
		return ResultSucceeded
	}

	if c.hooks.Retryable != nil && c.hooks.Retryable(err) {
		next := attempt + 1
		if next < c.cfg.MaxRetries && !c.state.suspended {
			delay := c.backoff(attempt)
			c.state.pending = &PendingRetry{Attempt: next, LastAttempt: now}
			c.armLocked(delay, next)
			c.mu.Unlock()
			c.observe(ResultRetryScheduled, attempt, delay)
			return ResultRetryScheduled
		}
		c.state.pending = nil
		c.mu.Unlock()
		if c.hooks.OnTerminal != nil {
			c.hooks.OnTerminal(err, next, next >= c.cfg.MaxRetries)
		}
		c.observe(ResultFailed, attempt, 0)
		return ResultFailed
	}

	c.state.pending = nil
	c.mu.Unlock()
	if c.hooks.OnTerminal != nil {
		c.hooks.OnTerminal(err, attempt+1, false)
	}
	c.observe(ResultFailed, attempt, 0)
	return ResultFailed
}

// backoff returns the delay before attempt+1, clamped to the last entry.
func (c *Controller) backoff(attempt int) time.Duration {
	if len(c.cfg.Backoff) == 0 {
		return c.cfg.Cooldown
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(c.cfg.Backoff) {
		attempt = len(c.cfg.Backoff) - 1
	}
	return c.cfg.Backoff[attempt]
}

// armLocked replaces any pending timer with one that calls Refresh(attempt)
// after d. Must be called with c.mu held.
func (c *Controller) armLocked(d time.Duration, attempt int) {
	c.stopTimerLocked()
	if c.state.closed || c.state.suspended {
		return
	}
	c.state.timer = c.clock.AfterFunc(d, func() {
		c.Refresh(c.base, attempt)
	})
}

func (c *Controller) stopTimerLocked() {
	if c.state.timer != nil {
		c.state.timer.Stop()
		c.state.timer = nil
	}
}

func (c *Controller) observe(r Result, attempt int, delay time.Duration) {
	if c.hooks.Observe != nil {
		c.hooks.Observe(r, attempt, delay)
	}
}

// Pending returns a copy of the owed retry, if any.
func (c *Controller) Pending() (PendingRetry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.pending == nil {
		return PendingRetry{}, false
	}
	return *c.state.pending, true
}

// InFlight reports whether an attempt is outstanding.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.inFlight
}

// Suspend cancels pending timers and skips every Refresh until Resume.
func (c *Controller) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.suspended = true
	c.state.pending = nil
	c.stopTimerLocked()
}

// Resume lifts a Suspend.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.suspended = false
}

// Cancel drops any owed retry without suspending.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.pending = nil
	c.stopTimerLocked()
}

// Close stops the controller permanently. An attempt already in flight
// finishes but its result is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.closed = true
	c.state.pending = nil
	c.stopTimerLocked()
}
