// Package ports defines the interfaces the orchestrator core consumes.
// This file contains the step and classifier contracts.
package ports

import (
	"context"

	"github.com/loanbox/orchestrator/internal/core/domain"
)

// Step is one scoring or validation stage of a pipeline.
type Step interface {
	// Type returns the identifier pipelines use to reference this step.
	Type() string
	// DefaultParams returns the parameters used when a pipeline omits them.
	DefaultParams() map[string]any
	// Execute evaluates the application. params are merged over DefaultParams.
	Execute(ctx context.Context, app *domain.Application, params map[string]any) (*domain.StepResult, error)
}

// Classification is the result of classifying a loan purpose.
type Classification struct {
	RiskScore     float64  `json:"risk_score"`
	DetectedRisks []string `json:"detected_risks"`
	Confidence    float64  `json:"confidence"`
}

// TextClassifier scores free text for financial risk.
// Implementations: OpenAI chat completions.
type TextClassifier interface {
	Classify(ctx context.Context, purpose string, terms []string, model string) (*Classification, error)
}
