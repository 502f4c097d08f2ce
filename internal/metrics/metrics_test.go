package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementRunOutcome("APPROVED")
	m.IncrementRunOutcome("APPROVED")
	m.IncrementStepOutcome("dti_rule", true)
	m.IncrementRunError("not_found")
	m.ObserveRunLatency(5 * time.Millisecond)

	if got := testutil.ToFloat64(m.RunOutcome.WithLabelValues("APPROVED")); got != 2 {
		t.Errorf("runs APPROVED = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.StepOutcome.WithLabelValues("dti_rule", "true")); got != 1 {
		t.Errorf("steps dti_rule/true = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RunErrors.WithLabelValues("not_found")); got != 1 {
		t.Errorf("run errors = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.IncrementRunOutcome("APPROVED")
	m.IncrementStepOutcome("dti_rule", false)
	m.ObserveRunLatency(time.Second)
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncrementRunOutcome("REJECTED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `loan_pipeline_runs_total{status="REJECTED"} 1`) {
		t.Errorf("exposition missing run counter:\n%s", body)
	}
}
