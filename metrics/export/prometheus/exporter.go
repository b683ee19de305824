package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/metrics/export/internaldefs"
)

// MetricsSource is what the exporter reads on every scrape.
type MetricsSource interface {
	MetricsSnapshot() goAccount.MetricsSnapshot
	AuditDropped() uint64
}

// backendSource is implemented by *goAccount.Engine; when present the
// exporter adds one goaccount_backend_info series per store.
type backendSource interface {
	Backends() goAccount.BackendReport
}

// Exporter renders engine metrics in Prometheus text exposition format.
type Exporter struct {
	source MetricsSource
}

// NewExporter creates an exporter reading from engine.
func NewExporter(engine *goAccount.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an exporter from any MetricsSource.
func NewExporterFromSource(source MetricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the rendered metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// ContentType is the Prometheus text format media type.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Render returns the current metrics. It is empty when metrics are disabled
// and nothing was ever dropped.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)
		writeHistogram(&b, def.Name, def.Help, cumulative)
	}

	writeCounter(&b, "goaccount_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	if bs, ok := p.source.(backendSource); ok {
		writeBackendInfo(&b, bs.Backends())
	}

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	writeHeader(b, name, help, "counter")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	count := cumulative[len(cumulative)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// The engine keeps bucket counts only.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func writeBackendInfo(b *strings.Builder, report goAccount.BackendReport) {
	const name = "goaccount_backend_info"
	writeHeader(b, name, "Backend each store runs on.", "gauge")

	fellBack := make(map[string]bool, len(report.Fallbacks))
	for _, store := range report.Fallbacks {
		fellBack[store] = true
	}

	for _, s := range []struct {
		store   string
		backend goAccount.Backend
	}{
		{"credential", report.Credential},
		{"session", report.Session},
		{"profile", report.Profile},
	} {
		b.WriteString(name)
		b.WriteString("{store=\"")
		b.WriteString(s.store)
		b.WriteString("\",backend=\"")
		b.WriteString(string(s.backend))
		b.WriteString("\",fallback=\"")
		b.WriteString(strconv.FormatBool(fellBack[s.store]))
		b.WriteString("\"} 1\n")
	}
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
