package schedule

import (
	"testing"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

func testConfig() Config {
	return Config{
		Buffer:        30 * time.Second,
		MinDelay:      time.Second,
		IdleInterval:  60 * time.Second,
		IdleThreshold: 30 * time.Second,
	}
}

func TestArmSchedulesAheadOfExpiry(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fc := clock.Fake(start)
	var fired []Reason
	s := New(fc, Config{Buffer: 30 * time.Second, MinDelay: time.Second}, func(r Reason) { fired = append(fired, r) })

	d := s.Arm(start.Add(90 * time.Minute))
	want := 90*time.Minute - 30*time.Second
	if d.Immediate || d.Delay != want {
		t.Fatalf("expected delay %v, got %+v", want, d)
	}
	at, ok := s.NextRefresh()
	if !ok || !at.Equal(start.Add(want)) {
		t.Fatalf("unexpected next refresh %v ok=%v", at, ok)
	}

	fc.Advance(want - time.Millisecond)
	if len(fired) != 0 {
		t.Fatalf("fired early: %v", fired)
	}
	fc.Advance(time.Millisecond)
	if len(fired) != 1 || fired[0] != ReasonExpiry {
		t.Fatalf("expected one expiry trigger, got %v", fired)
	}
	if _, ok := s.NextRefresh(); ok {
		t.Fatal("next refresh should clear after firing")
	}
}

func TestArmInsideBufferFiresImmediately(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fc := clock.Fake(start)
	fired := 0
	s := New(fc, testConfig(), func(Reason) { fired++ })

	d := s.Arm(start.Add(10 * time.Second))
	if !d.Immediate || fired != 1 {
		t.Fatalf("expected immediate trigger, decision=%+v fired=%d", d, fired)
	}
}

func TestArmAppliesMinDelay(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fc := clock.Fake(start)
	s := New(fc, testConfig(), func(Reason) {})

	d := s.Arm(start.Add(30*time.Second + 200*time.Millisecond))
	if d.Delay != time.Second {
		t.Fatalf("expected min delay, got %v", d.Delay)
	}
}

func TestRearmReplacesTimer(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fc := clock.Fake(start)
	fired := 0
	s := New(fc, Config{Buffer: 30 * time.Second, MinDelay: time.Second}, func(Reason) { fired++ })

	s.Arm(start.Add(2 * time.Minute))
	s.Arm(start.Add(10 * time.Minute))
	if fc.Pending() != 1 {
		t.Fatalf("expected one live timer, got %d", fc.Pending())
	}
	fc.Advance(5 * time.Minute)
	if fired != 0 {
		t.Fatalf("stale timer fired, count=%d", fired)
	}
	fc.Advance(5 * time.Minute)
	if fired != 1 {
		t.Fatalf("expected replacement timer to fire once, count=%d", fired)
	}
}

func TestIdleTimerTriggersOnlyWhenIdle(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fc := clock.Fake(start)
	var fired []Reason
	s := New(fc, testConfig(), func(r Reason) { fired = append(fired, r) })

	s.Arm(start.Add(24 * time.Hour))

	fc.Advance(50 * time.Second)
	s.RecordActivity()
	fc.Advance(10 * time.Second)
	if len(fired) != 0 {
		t.Fatalf("active session should not trigger, got %v", fired)
	}

	fc.Advance(60 * time.Second)
	if len(fired) != 1 || fired[0] != ReasonIdle {
		t.Fatalf("expected idle trigger, got %v", fired)
	}

	fc.Advance(60 * time.Second)
	if len(fired) != 2 {
		t.Fatalf("idle check must keep repeating, got %v", fired)
	}
}

func TestSuspendAndCloseStopTimers(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fc := clock.Fake(start)
	fired := 0
	s := New(fc, testConfig(), func(Reason) { fired++ })

	s.Arm(start.Add(5 * time.Minute))
	s.Suspend()
	if d := s.Arm(start.Add(5 * time.Minute)); d.Delay != 0 || d.Immediate {
		t.Fatalf("arm while suspended must be ignored, got %+v", d)
	}
	fc.Advance(time.Hour)
	if fired != 0 {
		t.Fatalf("suspended scheduler fired %d times", fired)
	}

	s.Resume()
	s.Arm(fc.Now().Add(5 * time.Minute))
	s.Close()
	fc.Advance(time.Hour)
	if fired != 0 || fc.Pending() != 0 {
		t.Fatalf("closed scheduler fired=%d pending=%d", fired, fc.Pending())
	}
}
