// Package health runs the backend health check once at boot and then on a
// fixed interval, bounding each probe with a timeout.
package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

// ErrUnhealthy is reported when the checker answered but said the backend
// is not healthy.
var ErrUnhealthy = errors.New("health: backend reported unhealthy")

// Report is what a checker returns.
type Report struct {
	Healthy bool
	Auth    bool
	Message string
}

// CheckFunc probes the backend.
type CheckFunc func(ctx context.Context) (Report, error)

// Outcome is one finished probe.
type Outcome struct {
	Healthy bool
	Message string
	Err     error
	Latency time.Duration
}

// Poller owns the periodic timer.
type Poller struct {
	clock    clock.Clock
	base     context.Context
	interval time.Duration
	timeout  time.Duration
	check    CheckFunc
	publish  func(Outcome)

	mu      sync.Mutex
	timer   clock.Timer
	running bool
	closed  bool
}

// New returns a Poller. publish receives every periodic outcome.
func New(base context.Context, c clock.Clock, interval, timeout time.Duration, check CheckFunc, publish func(Outcome)) *Poller {
	if base == nil {
		base = context.Background()
	}
	if c == nil {
		c = clock.Real()
	}
	return &Poller{
		clock:    c,
		base:     base,
		interval: interval,
		timeout:  timeout,
		check:    check,
		publish:  publish,
	}
}

// Check runs one probe bounded by the poller timeout.
func (p *Poller) Check(ctx context.Context) Outcome {
	if ctx == nil {
		ctx = p.base
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := p.clock.Now()
	rep, err := p.check(ctx)
	latency := p.clock.Now().Sub(start)
	if err != nil {
		return Outcome{Err: err, Latency: latency}
	}
	if !rep.Healthy {
		return Outcome{Message: rep.Message, Err: ErrUnhealthy, Latency: latency}
	}
	return Outcome{Healthy: true, Message: rep.Message, Latency: latency}
}

// Start arms the periodic probe. Calling it twice is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.running || p.interval <= 0 {
		return
	}
	p.running = true
	p.timer = p.clock.AfterFunc(p.interval, p.tick)
}

func (p *Poller) tick() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	out := p.Check(p.base)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.timer = p.clock.AfterFunc(p.interval, p.tick)
	p.mu.Unlock()

	if p.publish != nil {
		p.publish(out)
	}
}

// Close stops polling.
func (p *Poller) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.running = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
