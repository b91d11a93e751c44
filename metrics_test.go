package goSession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/clock"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricRefreshSuccess)

	if got := m.Value(MetricRefreshSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	var nilMetrics *Metrics
	nilMetrics.Inc(MetricRefreshSuccess)
	nilMetrics.Observe(MetricRefreshLatency, time.Second)
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRefreshAttempt)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRefreshAttempt); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		7 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricRefreshLatency, d)
	}
	m.Observe(MetricRefreshAttempt, time.Second)

	buckets := m.Snapshot().Histograms[MetricRefreshLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotWithoutHistograms(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricCrossTabMismatch)
	m.Observe(MetricRefreshLatency, time.Millisecond)

	snap := m.Snapshot()
	if snap.Counters[MetricCrossTabMismatch] != 1 {
		t.Fatalf("mismatch counter = %d", snap.Counters[MetricCrossTabMismatch])
	}
	if _, ok := snap.Histograms[MetricRefreshLatency]; ok {
		t.Fatal("histogram should be absent when latency tracking is off")
	}
	if _, ok := snap.Counters[MetricRefreshLatency]; ok {
		t.Fatal("latency id is not a counter")
	}
}

func TestManagerCountsRefreshOutcomes(t *testing.T) {
	fc := clock.Fake(testStart)
	id := newFakeIdentity(fc)
	id.signIn(testIdentity)
	m := buildTestManager(t, fc, id, testConfig(), func(b *Builder) { b.WithLatencyHistograms(true) })
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if got := m.TriggerRefresh(context.Background()); got != RefreshSucceeded {
		t.Fatalf("first refresh = %v", got)
	}
	if got := m.TriggerRefresh(context.Background()); got != RefreshDeferred {
		t.Fatalf("refresh inside cooldown = %v", got)
	}
	fc.Advance(time.Second)

	snap := m.MetricsSnapshot()
	if snap.Counters[MetricRefreshAttempt] != 2 || snap.Counters[MetricRefreshSuccess] != 2 {
		t.Fatalf("attempt=%d success=%d", snap.Counters[MetricRefreshAttempt], snap.Counters[MetricRefreshSuccess])
	}
	if snap.Counters[MetricRefreshDeferred] != 1 {
		t.Fatalf("deferred=%d", snap.Counters[MetricRefreshDeferred])
	}
	if snap.Counters[MetricInitialize] != 1 {
		t.Fatalf("initialize=%d", snap.Counters[MetricInitialize])
	}
	var total uint64
	for _, v := range snap.Histograms[MetricRefreshLatency] {
		total += v
	}
	if total != 2 {
		t.Fatalf("expected 2 latency samples, got %d", total)
	}
}
