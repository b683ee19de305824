package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
)

type fakeSource struct {
	snapshot goAccount.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goAccount.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

type fakeEngineSource struct {
	fakeSource
	report goAccount.BackendReport
}

func (f fakeEngineSource) Backends() goAccount.BackendReport { return f.report }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goAccount.MetricsSnapshot{
			Counters:   map[goAccount.MetricID]uint64{},
			Histograms: map[goAccount.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goAccount.MetricsSnapshot{
			Counters: map[goAccount.MetricID]uint64{
				goAccount.MetricLoginSuccess: 7,
			},
			Histograms: map[goAccount.MetricID][]uint64{
				goAccount.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"goaccount_login_success_total 7",
		"goaccount_register_success_total 0",
		"goaccount_validate_latency_seconds_bucket{le=\"0.005\"} 1",
		"goaccount_validate_latency_seconds_bucket{le=\"+Inf\"} 36",
		"goaccount_validate_latency_seconds_count 36",
		"goaccount_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "goaccount_backend_info") {
		t.Fatalf("backend info rendered for a plain source:\n%s", out)
	}
}

func TestRenderBackendInfo(t *testing.T) {
	exp := NewExporterFromSource(fakeEngineSource{
		fakeSource: fakeSource{snapshot: goAccount.MetricsSnapshot{
			Counters: map[goAccount.MetricID]uint64{goAccount.MetricBackendFallback: 1},
		}},
		report: goAccount.BackendReport{
			Credential: goAccount.BackendPostgres,
			Session:    goAccount.BackendFile,
			Profile:    goAccount.BackendSQLite,
			Fallbacks:  []string{"session"},
		},
	})

	out := exp.Render()
	for _, want := range []string{
		`goaccount_backend_info{store="credential",backend="postgres",fallback="false"} 1`,
		`goaccount_backend_info{store="session",backend="file",fallback="true"} 1`,
		`goaccount_backend_info{store="profile",backend="sqlite",fallback="false"} 1`,
		"goaccount_backend_fallback_total 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goAccount.MetricsSnapshot{
			Counters:   map[goAccount.MetricID]uint64{goAccount.MetricLoginSuccess: 1},
			Histograms: map[goAccount.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goAccount.MetricsSnapshot{
			Counters: map[goAccount.MetricID]uint64{
				goAccount.MetricLoginSuccess:     1000,
				goAccount.MetricLoginFailure:     40,
				goAccount.MetricSessionCreated:   1000,
				goAccount.MetricSessionValidated: 25000,
				goAccount.MetricSessionExpired:   20,
				goAccount.MetricProfileUpdated:   300,
			},
			Histograms: map[goAccount.MetricID][]uint64{
				goAccount.MetricValidateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
