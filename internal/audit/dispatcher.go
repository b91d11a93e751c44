package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Config controls dispatcher buffering and event stamping.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops routine events when the buffer is full. Sign-outs and
	// exhausted refreshes still wait for room.
	DropIfFull bool
	// Origin is stamped on events that carry none.
	Origin string
	// Now stamps events with a zero Timestamp. Defaults to time.Now.
	Now func() time.Time
}

// mustDeliver lists the events that end a session. Losing one would leave a
// sink believing a session is still live.
var mustDeliver = map[string]bool{
	TypeSignedOut:      true,
	TypeForcedSignOut:  true,
	TypeRefreshExhaust: true,
}

// Dispatcher relays events to a sink from one goroutine, preserving the
// order the Manager emitted them in. A nil Dispatcher accepts and discards
// everything.
type Dispatcher struct {
	cfg  Config
	sink Sink

	queue    chan Event
	stop     chan struct{}
	relay    sync.WaitGroup
	stopOnce sync.Once
	closed   atomic.Bool

	// seq numbers every accepted Emit, dropped or not, so a sink can spot
	// gaps.
	seq     atomic.Uint64
	emitted atomic.Uint64
	dropped atomic.Uint64
}

// NewDispatcher starts the relay goroutine. It returns nil when cfg is
// disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan Event, cfg.BufferSize),
		stop:  make(chan struct{}),
	}
	d.relay.Add(1)
	go d.relayLoop()
	return d
}

func (d *Dispatcher) relayLoop() {
	defer d.relay.Done()
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

// drain delivers whatever is still queued once Close has been called.
func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	d.sink.Emit(context.Background(), event)
	d.emitted.Add(1)
}

// stamp fills the fields the Manager leaves to the dispatcher.
func (d *Dispatcher) stamp(event Event) Event {
	event.Seq = d.seq.Add(1)
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.cfg.Now().UTC()
	}
	if event.Origin == "" {
		event.Origin = d.cfg.Origin
	}
	return event
}

// Emit stamps and queues event. Routine events are dropped when the buffer
// is full and DropIfFull is set; everything else waits for room, ctx or
// Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event = d.stamp(event)

	if d.cfg.DropIfFull && !mustDeliver[event.EventType] {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stop:
	}
}

// Close delivers queued events and stops the relay.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.relay.Wait()
	})
}

// Dropped counts events lost to a full buffer or a cancelled context.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *Dispatcher) Emitted() uint64 {
	if d == nil {
		return 0
	}
	return d.emitted.Load()
}
