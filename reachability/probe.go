package reachability

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

// DialFunc opens a connection. net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// DialProbe implements goSession.ReachabilitySource.
type DialProbe struct {
	Address  string
	Network  string
	Interval time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
	Dial     DialFunc
}

// NewDialProbe returns a TCP probe of address every interval.
func NewDialProbe(address string, interval time.Duration) *DialProbe {
	return &DialProbe{
		Address:  address,
		Network:  "tcp",
		Interval: interval,
		Timeout:  3 * time.Second,
	}
}

// Probe runs a single dial.
func (p *DialProbe) Probe(ctx context.Context) bool {
	dial := p.Dial
	if dial == nil {
		d := &net.Dialer{}
		dial = d.DialContext
	}
	network := p.Network
	if network == "" {
		network = "tcp"
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	conn, err := dial(ctx, network, p.Address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Start probes once immediately and then every Interval until stop is
// called. report is never called after stop returns.
func (p *DialProbe) Start(report func(online bool)) (stop func()) {
	c := p.Clock
	if c == nil {
		c = clock.Real()
	}
	ctx, cancel := context.WithCancel(context.Background())

	r := &runner{probe: p, clock: c, ctx: ctx, report: report}
	go r.tick()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			r.stop()
		})
	}
}

type runner struct {
	probe  *DialProbe
	clock  clock.Clock
	ctx    context.Context
	report func(bool)

	mu      sync.Mutex
	stopped bool
	timer   clock.Timer
}

func (r *runner) tick() {
	online := r.probe.Probe(r.ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	// Reporting under the lock keeps stop from returning mid-report.
	if r.report != nil {
		r.report(online)
	}
	if r.probe.Interval > 0 {
		r.timer = r.clock.AfterFunc(r.probe.Interval, func() { go r.tick() })
	}
}

func (r *runner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
