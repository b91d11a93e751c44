package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

// stateSource is implemented by *goSession.Manager. Aggregates that lack it
// render counters only.
type stateSource interface {
	Snapshot() goSession.Snapshot
}

// PrometheusExporter renders goSession metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from m.
func NewPrometheusExporter(m *goSession.Manager) *PrometheusExporter {
	return &PrometheusExporter{source: m}
}

// NewPrometheusExporterFromSource reads from any snapshot source, such as
// an aggregate of several Managers.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics. It is empty when metrics are
// disabled and nothing was dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(8192)

	for _, def := range internaldefs.CounterDefs {
		writeHeader(&b, def.Name, def.Help, "counter")
		writeSample(&b, def.Name, "", strconv.FormatUint(snapshot.Counters[def.ID], 10))
	}

	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		writeHeader(&b, def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			writeSample(&b, def.Name+"_bucket", `le="`+le+`"`, strconv.FormatUint(cumulative[i], 10))
		}
		writeSample(&b, def.Name+"_count", "", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
		// Snapshots carry no sum.
		writeSample(&b, def.Name+"_sum", "", "0")
	}

	writeHeader(&b, "gosession_audit_dropped_total", "Audit events dropped by dispatcher backpressure.", "counter")
	writeSample(&b, "gosession_audit_dropped_total", "", strconv.FormatUint(dropped, 10))

	if st, ok := p.source.(stateSource); ok {
		writeState(&b, st.Snapshot())
	}

	return b.String()
}

var statuses = []goSession.Status{
	goSession.StatusIdle,
	goSession.StatusLoading,
	goSession.StatusAuthenticated,
	goSession.StatusUnauthenticated,
	goSession.StatusError,
}

// writeState renders the current status as a one-hot gauge family plus the
// advisory server health.
func writeState(b *strings.Builder, snap goSession.Snapshot) {
	writeHeader(b, "gosession_status", "Current session status, 1 for the active one.", "gauge")
	for _, st := range statuses {
		v := "0"
		if st == snap.Status {
			v = "1"
		}
		writeSample(b, "gosession_status", `status="`+st.String()+`"`, v)
	}

	health := "-1"
	switch snap.ServerStatus {
	case goSession.ServerHealthy:
		health = "1"
	case goSession.ServerUnhealthy:
		health = "0"
	}
	writeHeader(b, "gosession_server_healthy", "1 healthy, 0 unhealthy, -1 not yet polled.", "gauge")
	writeSample(b, "gosession_server_healthy", "", health)
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name, labels, value string) {
	b.WriteString(name)
	if labels != "" {
		b.WriteByte('{')
		b.WriteString(labels)
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
