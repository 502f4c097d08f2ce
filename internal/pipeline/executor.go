package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/core/ports"
	"github.com/loanbox/orchestrator/internal/metrics"
)

var tracer = otel.Tracer("github.com/loanbox/orchestrator/internal/pipeline")

// Executor runs stored pipelines against stored applications and records
// the result.
type Executor struct {
	applications ports.ApplicationStore
	pipelines    ports.PipelineStore
	runs         ports.RunStore
	steps        StepResolver
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger for the executor.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink for the executor.
func WithMetrics(m *metrics.Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// NewExecutor creates an executor over store.
func NewExecutor(store ports.Store, steps StepResolver, opts ...ExecutorOption) *Executor {
	e := &Executor{
		applications: store,
		pipelines:    store,
		runs:         store,
		steps:        steps,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute evaluates pipeline pipelineID against application applicationID,
// writes the final status onto the application and persists the run.
func (e *Executor) Execute(ctx context.Context, applicationID, pipelineID int64) (*domain.Run, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "pipeline.execute", trace.WithAttributes(
		attribute.Int64("application.id", applicationID),
		attribute.Int64("pipeline.id", pipelineID),
	))
	defer span.End()

	run, err := e.execute(ctx, applicationID, pipelineID)
	e.metrics.ObserveRunLatency(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.IncrementRunError(string(domain.TypeOf(err)))
		e.logger.Error("pipeline run failed",
			slog.Int64("application_id", applicationID),
			slog.Int64("pipeline_id", pipelineID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("run.id", run.ID),
		attribute.String("run.final_status", string(run.FinalStatus)),
	)
	e.metrics.IncrementRunOutcome(string(run.FinalStatus))
	for _, l := range run.StepLogs {
		e.metrics.IncrementStepOutcome(l.StepType, l.Passed)
	}

	e.logger.Info("pipeline run completed",
		slog.Int64("run_id", run.ID),
		slog.Int64("application_id", applicationID),
		slog.Int64("pipeline_id", pipelineID),
		slog.String("final_status", string(run.FinalStatus)),
		slog.Duration("duration", time.Since(start)),
	)

	return run, nil
}

func (e *Executor) execute(ctx context.Context, applicationID, pipelineID int64) (*domain.Run, error) {
	app, err := e.applications.GetApplication(ctx, applicationID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrNotFound(fmt.Sprintf("Application %d not found", applicationID))
		}
		return nil, fmt.Errorf("load application: %w", err)
	}

	p, err := e.pipelines.GetPipeline(ctx, pipelineID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrNotFound(fmt.Sprintf("Pipeline %d not found", pipelineID))
		}
		return nil, fmt.Errorf("load pipeline: %w", err)
	}

	outcome, err := Evaluate(ctx, e.steps, app, p)
	if err != nil {
		return nil, err
	}

	if err := e.applications.UpdateApplicationStatus(ctx, applicationID, outcome.FinalStatus); err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	run := &domain.Run{
		ApplicationID:    applicationID,
		PipelineID:       pipelineID,
		StepLogs:         outcome.StepLogs,
		TerminalRuleLogs: outcome.TerminalRuleLogs,
		FinalStatus:      outcome.FinalStatus,
	}
	if err := e.runs.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	return run, nil
}
