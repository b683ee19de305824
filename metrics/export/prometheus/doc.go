// Package prometheus renders goAccount metrics in Prometheus text exposition
// format.
//
// Counters are named goaccount_*_total; the validate latency histogram is
// goaccount_validate_latency_seconds. When the source is a *goAccount.Engine
// the output also carries goaccount_backend_info{store,backend,fallback}.
//
// Nothing is registered globally; callers mount [Exporter.Handler].
package prometheus
