// Package metrics holds the Prometheus collectors for pipeline runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for pipeline execution.
type Metrics struct {
	// Run outcomes by final status
	RunOutcome *prometheus.CounterVec

	// Step outcomes by step type and pass/fail
	StepOutcome *prometheus.CounterVec

	// Run failures by error type
	RunErrors *prometheus.CounterVec

	// Full run latency including storage
	RunLatency prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates a Metrics instance registered on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_pipeline_runs_total",
			Help: "Total pipeline runs by final status",
		}, []string{"status"}),

		StepOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_pipeline_steps_total",
			Help: "Total step executions by step type and result",
		}, []string{"step_type", "passed"}),

		RunErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_pipeline_run_errors_total",
			Help: "Total failed pipeline runs by error type",
		}, []string{"type"}),

		RunLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loan_pipeline_run_duration_seconds",
			Help:    "Duration of a pipeline run including loading and persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		gatherer: reg,
	}
}

// IncrementRunOutcome records the final status of a run.
func (m *Metrics) IncrementRunOutcome(status string) {
	if m != nil {
		m.RunOutcome.WithLabelValues(status).Inc()
	}
}

// IncrementStepOutcome records one step execution.
func (m *Metrics) IncrementStepOutcome(stepType string, passed bool) {
	if m != nil {
		m.StepOutcome.WithLabelValues(stepType, strconv.FormatBool(passed)).Inc()
	}
}

// IncrementRunError records a run that failed with errType.
func (m *Metrics) IncrementRunError(errType string) {
	if m != nil {
		m.RunErrors.WithLabelValues(errType).Inc()
	}
}

// ObserveRunLatency records the total run duration.
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
