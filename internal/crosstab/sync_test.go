package crosstab

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/broadcast"
	"github.com/MrEthical07/goSession/clock"
)

func TestMismatchTriggersOwner(t *testing.T) {
	hub := broadcast.NewHub()
	fc := clock.Fake(time.UnixMilli(1_700_000_000_000))

	localA, localB := "C1", "C0"
	var mismatchesB []string
	a := New(hub.Open("sync"), "tab-a", fc, Hooks{Current: func() string { return localA }})
	b := New(hub.Open("sync"), "tab-b", fc, Hooks{
		Current:    func() string { return localB },
		OnMismatch: func(m broadcast.Message) { mismatchesB = append(mismatchesB, m.Checksum) },
	})
	a.Start()
	b.Start()

	if err := a.Publish(context.Background(), localA); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mismatchesB) != 1 || mismatchesB[0] != "C1" {
		t.Fatalf("expected mismatch with C1, got %v", mismatchesB)
	}
	if localB != "C0" {
		t.Fatal("peer checksum must never be adopted directly")
	}

	localB = "C1"
	a.Publish(context.Background(), localA)
	if len(mismatchesB) != 1 {
		t.Fatalf("matching checksum must not trigger, got %v", mismatchesB)
	}
}

func TestOwnOriginIgnored(t *testing.T) {
	hub := broadcast.NewHub()
	fc := clock.Fake(time.Unix(0, 0))
	calls := 0

	ep := hub.Open("sync")
	s := New(ep, "tab-a", fc, Hooks{
		Current:    func() string { return "" },
		OnMismatch: func(broadcast.Message) { calls++ },
	})
	s.Start()

	other := hub.Open("sync")
	other.Post(context.Background(), broadcast.NewSessionUpdate("tab-a", "C9", fc.Now()))
	other.Post(context.Background(), broadcast.Message{Type: "OTHER", Checksum: "C9"})
	if calls != 0 {
		t.Fatalf("echo or foreign type handled, calls=%d", calls)
	}

	other.Post(context.Background(), broadcast.NewSessionUpdate("tab-b", "C9", fc.Now()))
	if calls != 1 {
		t.Fatalf("expected peer message handled, calls=%d", calls)
	}

	s.Stop()
	other.Post(context.Background(), broadcast.NewSessionUpdate("tab-b", "C8", fc.Now()))
	if calls != 1 {
		t.Fatalf("stopped sync still handling, calls=%d", calls)
	}
}

func TestNilChannelIsNoop(t *testing.T) {
	s := New(nil, "tab", nil, Hooks{})
	s.Start()
	if err := s.Publish(context.Background(), "C1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	s.Stop()
}
