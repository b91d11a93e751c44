package netmon

import (
	"testing"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

func TestReportDebouncesFlaps(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	var changes []bool
	m := New(fc, time.Second, func(online bool) { changes = append(changes, online) })

	m.Report(false)
	fc.Advance(300 * time.Millisecond)
	m.Report(true)
	fc.Advance(300 * time.Millisecond)
	m.Report(false)
	fc.Advance(999 * time.Millisecond)
	if len(changes) != 0 {
		t.Fatalf("settled before debounce elapsed: %v", changes)
	}
	fc.Advance(time.Millisecond)
	if len(changes) != 1 || changes[0] {
		t.Fatalf("expected single offline change, got %v", changes)
	}
	if m.Online() {
		t.Fatal("expected offline after settle")
	}
}

func TestSameStateIsNotRedelivered(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	calls := 0
	m := New(fc, time.Second, func(bool) { calls++ })

	m.Report(true)
	fc.Advance(2 * time.Second)
	if calls != 0 {
		t.Fatalf("initial online must not notify, calls=%d", calls)
	}

	m.Report(false)
	fc.Advance(2 * time.Second)
	m.Report(false)
	fc.Advance(2 * time.Second)
	m.Report(true)
	fc.Advance(2 * time.Second)
	if calls != 2 {
		t.Fatalf("expected offline then online, calls=%d", calls)
	}
}

func TestCloseDropsPendingReport(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	calls := 0
	m := New(fc, time.Second, func(bool) { calls++ })

	m.Report(false)
	m.Close()
	fc.Advance(time.Minute)
	m.Report(false)
	fc.Advance(time.Minute)
	if calls != 0 {
		t.Fatalf("closed monitor delivered %d changes", calls)
	}
}
