package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loanbox/orchestrator/internal/condition"
	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/core/ports"
)

// StepResolver looks up step implementations by type.
type StepResolver interface {
	Resolve(stepType string) (ports.Step, error)
}

// Outcome is the result of evaluating a pipeline against an application.
type Outcome struct {
	StepLogs         []domain.StepLog         `json:"step_logs"`
	TerminalRuleLogs []domain.TerminalRuleLog `json:"terminal_rule_logs"`
	FinalStatus      domain.FinalStatus       `json:"final_status"`
}

// Evaluate runs the pipeline's steps and terminal rules against app.
// An unresolvable step type or a failing step aborts the evaluation.
func Evaluate(ctx context.Context, steps StepResolver, app *domain.Application, p *domain.Pipeline) (*Outcome, error) {
	configs := p.SortedSteps()
	logs := make([]domain.StepLog, 0, len(configs))
	results := make(condition.Results, len(configs))

	for _, cfg := range configs {
		step, err := steps.Resolve(cfg.StepType)
		if err != nil {
			return nil, err
		}

		result, err := executeStep(ctx, step, app, cfg)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", cfg.StepType, err)
		}

		logs = append(logs, domain.StepLog{
			StepType:       cfg.StepType,
			Order:          cfg.Order,
			Passed:         result.Passed,
			ComputedValues: result.ComputedValues,
			Message:        result.Message,
		})
		results[cfg.StepType] = result
	}

	status, ruleLogs := condition.EvaluateRules(p.TerminalRules, results)

	return &Outcome{
		StepLogs:         logs,
		TerminalRuleLogs: ruleLogs,
		FinalStatus:      status,
	}, nil
}

func executeStep(ctx context.Context, step ports.Step, app *domain.Application, cfg domain.StepConfig) (*domain.StepResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.step", trace.WithAttributes(
		attribute.String("step.type", cfg.StepType),
		attribute.Int("step.order", cfg.Order),
	))
	defer span.End()

	params := cfg.Params
	if params == nil {
		params = map[string]any{}
	}

	result, err := step.Execute(ctx, app, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result.ComputedValues == nil {
		result.ComputedValues = domain.Values{}
	}
	span.SetAttributes(attribute.Bool("step.passed", result.Passed))
	return result, nil
}
