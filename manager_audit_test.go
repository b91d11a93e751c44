package goSession

import (
	"context"
	"testing"

	"github.com/MrEthical07/goSession/clock"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
)

func TestAuditEventsStampedByManager(t *testing.T) {
	fc := clock.Fake(testStart)
	id := newFakeIdentity(fc)
	id.signIn(testIdentity)

	cfg := testConfig()
	cfg.Audit.Enabled = true
	sink := NewChannelSink(64)
	m := buildTestManager(t, fc, id, cfg, func(b *Builder) { b.WithAuditSink(sink) })

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	m.Close()

	var events []AuditEvent
	for done := false; !done; {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		default:
			done = true
		}
	}
	if len(events) == 0 {
		t.Fatal("expected audit events from initialize")
	}

	sawAuthenticated := false
	for i, ev := range events {
		if ev.Origin != m.Origin() {
			t.Fatalf("event %d origin=%q want %q", i, ev.Origin, m.Origin())
		}
		if !ev.Timestamp.Equal(testStart) {
			t.Fatalf("event %d timestamp=%v want the manager clock %v", i, ev.Timestamp, testStart)
		}
		if ev.Seq != uint64(i+1) {
			t.Fatalf("event %d seq=%d want %d", i, ev.Seq, i+1)
		}
		if ev.EventType == internalaudit.TypeTransition && ev.To == StatusAuthenticated.String() {
			sawAuthenticated = true
		}
	}
	if !sawAuthenticated {
		t.Fatalf("no transition to authenticated in %+v", events)
	}
}
