package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

type gatedRecorder struct {
	gate  chan struct{}
	mu    sync.Mutex
	types []string
}

func (s *gatedRecorder) Emit(_ context.Context, ev Event) {
	<-s.gate
	s.mu.Lock()
	s.types = append(s.types, ev.EventType)
	s.mu.Unlock()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), Event{EventType: TypeTransition})
	d.Close()
	if d.Dropped() != 0 || d.Emitted() != 0 {
		t.Fatal("nil dispatcher must report zero counters")
	}
}

func TestDispatcherAssignsIDAndDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{EventType: TypeRefreshSuccess, Success: true})
	}
	d.Close()

	if d.Emitted() != 3 {
		t.Fatalf("expected 3 delivered events, got %d", d.Emitted())
	}
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		ev := <-sink.Events()
		if ev.ID == "" || seen[ev.ID] {
			t.Fatalf("expected unique event id, got %q", ev.ID)
		}
		seen[ev.ID] = true
	}

	d.Emit(context.Background(), Event{EventType: TypeTransition})
	if d.Emitted() != 3 {
		t.Fatal("emit after close must be ignored")
	}
}

func TestDropIfFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: TypeTransition})
	}
	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops while sink is blocked")
	}
	close(sink.gate)
	d.Close()
}

func TestDispatcherStampsEvents(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("x", 3600))
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 4,
		Origin:     "tab-a",
		Now:        func() time.Time { return at },
	}, sink)

	peerAt := at.Add(-time.Minute)
	d.Emit(context.Background(), Event{EventType: TypeTransition})
	d.Emit(context.Background(), Event{EventType: TypeCrossTabMismatch, Origin: "tab-b", Timestamp: peerAt})
	d.Close()

	first, second := <-sink.Events(), <-sink.Events()
	if first.Origin != "tab-a" || !first.Timestamp.Equal(at) || first.Timestamp.Location() != time.UTC {
		t.Fatalf("unstamped event got origin=%q ts=%v", first.Origin, first.Timestamp)
	}
	if second.Origin != "tab-b" || !second.Timestamp.Equal(peerAt) {
		t.Fatalf("caller fields must be kept, got origin=%q ts=%v", second.Origin, second.Timestamp)
	}
	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("seq=%d,%d want 1,2", first.Seq, second.Seq)
	}
}

func TestSessionEndingEventsAreNeverDropped(t *testing.T) {
	sink := &gatedRecorder{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: TypeHealthChanged})
	}
	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	dropped := d.Dropped()
	if dropped == 0 {
		t.Fatal("expected routine drops while sink is blocked")
	}

	queued := make(chan struct{})
	go func() {
		d.Emit(context.Background(), Event{EventType: TypeForcedSignOut})
		close(queued)
	}()
	close(sink.gate)
	select {
	case <-queued:
	case <-time.After(time.Second):
		t.Fatal("forced sign-out was never queued")
	}
	d.Close()

	if d.Dropped() != dropped {
		t.Fatalf("session-ending event dropped: before=%d after=%d", dropped, d.Dropped())
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if last := sink.types[len(sink.types)-1]; last != TypeForcedSignOut {
		t.Fatalf("last delivered=%q want %q", last, TypeForcedSignOut)
	}
}

func TestBlockingEmitCountsCancelledContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer d.Close()
	defer close(sink.gate)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	for i := 0; i < 3; i++ {
		d.Emit(ctx, Event{EventType: TypeTransition})
	}
	if d.Dropped() == 0 {
		t.Fatal("events abandoned on a cancelled context must count as dropped")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{ID: "e1", EventType: TypeTransition, From: "idle", To: "loading"})
	sink.Emit(context.Background(), Event{ID: "e2", EventType: TypeSignedOut})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.From != "idle" || ev.To != "loading" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSlogSinkLogsEventType(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	sink.Emit(context.Background(), Event{ID: "e1", EventType: TypeForcedSignOut, UserID: "u1"})

	out := buf.String()
	if !strings.Contains(out, TypeForcedSignOut) || !strings.Contains(out, "user_id=u1") {
		t.Fatalf("unexpected log line %q", out)
	}
}
