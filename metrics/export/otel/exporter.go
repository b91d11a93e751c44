package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// LatencyBucketName is the cumulative refresh latency gauge. Each data
// point carries an "le" attribute naming its upper bound.
const LatencyBucketName = "gosession_refresh_latency_seconds_bucket"

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

// stateSource is implemented by *goSession.Manager. Sources without it
// export counters only.
type stateSource interface {
	Snapshot() goSession.Snapshot
}

type observedCounter struct {
	id         goSession.MetricID
	instrument metric.Int64ObservableCounter
}

// OTelExporter observes a metrics source on every collection cycle.
type OTelExporter struct {
	source metricsSource
	state  stateSource

	registration metric.Registration
	counters     []observedCounter
	latency      metric.Int64ObservableGauge
	latencyCount metric.Int64ObservableGauge
	bounds       []attribute.Set
	auditDropped metric.Int64ObservableCounter

	authenticated metric.Int64ObservableGauge
	serverHealthy metric.Int64ObservableGauge
}

// NewOTelExporter registers one observable instrument per goSession metric
// on meter, read from m, plus gauges for the current session state.
func NewOTelExporter(meter metric.Meter, m *goSession.Manager) (*OTelExporter, error) {
	if m == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, m)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	e.state, _ = source.(stateSource)

	var observables []metric.Observable
	for _, register := range []func(metric.Meter) ([]metric.Observable, error){
		e.registerCounters,
		e.registerLatency,
		e.registerState,
	} {
		obs, err := register(meter)
		if err != nil {
			return nil, err
		}
		observables = append(observables, obs...)
	}

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) registerCounters(meter metric.Meter) ([]metric.Observable, error) {
	out := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+1)
	e.counters = make([]observedCounter, 0, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		out = append(out, ins)
	}

	dropped, err := meter.Int64ObservableCounter(
		"gosession_audit_dropped_total",
		metric.WithDescription("Audit events dropped by dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	return append(out, dropped), nil
}

func (e *OTelExporter) registerLatency(meter metric.Meter) ([]metric.Observable, error) {
	bucket, err := meter.Int64ObservableGauge(LatencyBucketName,
		metric.WithDescription("Cumulative refresh latency bucket counts."))
	if err != nil {
		return nil, fmt.Errorf("create latency bucket gauge: %w", err)
	}
	count, err := meter.Int64ObservableGauge("gosession_refresh_latency_seconds_count",
		metric.WithDescription("Refresh latency sample count."))
	if err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}

	e.latency = bucket
	e.latencyCount = count
	e.bounds = make([]attribute.Set, len(internaldefs.HistogramBounds))
	for i, le := range internaldefs.HistogramBounds {
		e.bounds[i] = attribute.NewSet(attribute.String("le", le))
	}
	return []metric.Observable{bucket, count}, nil
}

func (e *OTelExporter) registerState(meter metric.Meter) ([]metric.Observable, error) {
	if e.state == nil {
		return nil, nil
	}
	auth, err := meter.Int64ObservableGauge("gosession_authenticated",
		metric.WithDescription("1 while a session is held, else 0."))
	if err != nil {
		return nil, fmt.Errorf("create authenticated gauge: %w", err)
	}
	healthy, err := meter.Int64ObservableGauge("gosession_server_healthy",
		metric.WithDescription("1 healthy, 0 unhealthy, -1 not yet polled."))
	if err != nil {
		return nil, fmt.Errorf("create server health gauge: %w", err)
	}
	e.authenticated = auth
	e.serverHealthy = healthy
	return []metric.Observable{auth, healthy}, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		for i, n := range cumulative {
			o.ObserveInt64(e.latency, int64(n), metric.WithAttributeSet(e.bounds[i]))
		}
		o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	if e.state != nil {
		snap := e.state.Snapshot()
		var auth int64
		if snap.Status == goSession.StatusAuthenticated {
			auth = 1
		}
		o.ObserveInt64(e.authenticated, auth)
		o.ObserveInt64(e.serverHealthy, serverHealthValue(snap.ServerStatus))
	}
	return nil
}

func serverHealthValue(s goSession.ServerStatus) int64 {
	switch s {
	case goSession.ServerHealthy:
		return 1
	case goSession.ServerUnhealthy:
		return 0
	default:
		return -1
	}
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
