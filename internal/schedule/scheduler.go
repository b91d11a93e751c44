package schedule

import (
	"sync"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

// Reason says why Trigger was called.
type Reason uint8

const (
	// ReasonExpiry fires ahead of token expiry.
	ReasonExpiry Reason = iota
	// ReasonIdle fires when no activity was seen for longer than the idle
	// threshold.
	ReasonIdle
)

func (r Reason) String() string {
	if r == ReasonIdle {
		return "idle"
	}
	return "expiry"
}

// Config holds scheduler tuning.
type Config struct {
	// Buffer is how long before expiry the refresh fires.
	Buffer time.Duration
	// MinDelay is the floor applied to positive delays.
	MinDelay time.Duration
	// IdleInterval is the period of the idle-validation check.
	IdleInterval time.Duration
	// IdleThreshold is how long without activity counts as idle.
	IdleThreshold time.Duration
}

// Decision is the outcome of Arm.
type Decision struct {
	// Immediate is true when the expiry was already inside the buffer and
	// Trigger ran synchronously.
	Immediate bool
	// Delay is the armed delay. Zero when Immediate.
	Delay time.Duration
	// At is the wall-clock moment the refresh fires.
	At time.Time
}

// Scheduler owns at most one refresh timer and one idle timer.
type Scheduler struct {
	clock   clock.Clock
	cfg     Config
	trigger func(Reason)

	mu           sync.Mutex
	refreshTimer clock.Timer
	idleTimer    clock.Timer
	nextRefresh  time.Time
	lastActivity time.Time
	suspended    bool
	closed       bool
}

// New returns a Scheduler that calls trigger when a timer fires.
func New(c clock.Clock, cfg Config, trigger func(Reason)) *Scheduler {
	if c == nil {
		c = clock.Real()
	}
	return &Scheduler{
		clock:   c,
		cfg:     cfg,
		trigger: trigger,
	}
}

// Arm replaces both timers with ones computed from expiry. A delay that is
// already non-positive fires Trigger immediately, after the lock is
// released.
func (s *Scheduler) Arm(expiry time.Time) Decision {
	s.mu.Lock()
	if s.closed || s.suspended {
		s.mu.Unlock()
		return Decision{}
	}

	s.stopLocked()
	now := s.clock.Now()
	s.lastActivity = now
	s.armIdleLocked()

	delay := expiry.Sub(now) - s.cfg.Buffer
	if delay <= 0 {
		s.nextRefresh = now
		s.mu.Unlock()
		s.trigger(ReasonExpiry)
		return Decision{Immediate: true, At: now}
	}
	if delay < s.cfg.MinDelay {
		delay = s.cfg.MinDelay
	}
	s.nextRefresh = now.Add(delay)
	s.refreshTimer = s.clock.AfterFunc(delay, func() { s.fire(ReasonExpiry) })
	d := Decision{Delay: delay, At: s.nextRefresh}
	s.mu.Unlock()
	return d
}

func (s *Scheduler) fire(reason Reason) {
	s.mu.Lock()
	if s.closed || s.suspended {
		s.mu.Unlock()
		return
	}
	if reason == ReasonExpiry {
		s.refreshTimer = nil
		s.nextRefresh = time.Time{}
	}
	s.mu.Unlock()
	s.trigger(reason)
}

// armIdleLocked starts the self-rearming idle check.
func (s *Scheduler) armIdleLocked() {
	if s.cfg.IdleInterval <= 0 {
		return
	}
	s.idleTimer = s.clock.AfterFunc(s.cfg.IdleInterval, s.idleTick)
}

func (s *Scheduler) idleTick() {
	s.mu.Lock()
	if s.closed || s.suspended {
		s.mu.Unlock()
		return
	}
	idle := s.clock.Now().Sub(s.lastActivity) > s.cfg.IdleThreshold
	s.armIdleLocked()
	s.mu.Unlock()
	if idle {
		s.trigger(ReasonIdle)
	}
}

// RecordActivity marks the session as in use.
func (s *Scheduler) RecordActivity() {
	s.mu.Lock()
	s.lastActivity = s.clock.Now()
	s.mu.Unlock()
}

// NextRefresh returns when the armed refresh fires.
func (s *Scheduler) NextRefresh() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshTimer == nil {
		return time.Time{}, false
	}
	return s.nextRefresh, true
}

// Suspend stops both timers until Resume. Arm is ignored while suspended.
func (s *Scheduler) Suspend() {
	s.mu.Lock()
	s.suspended = true
	s.stopLocked()
	s.mu.Unlock()
}

// Resume lifts a Suspend. Timers stay disarmed until the next Arm.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
}

// Cancel stops both timers.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

// Close stops both timers permanently.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()
}

func (s *Scheduler) stopLocked() {
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.nextRefresh = time.Time{}
}
