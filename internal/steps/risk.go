package steps

import (
	"context"
	"fmt"

	"github.com/loanbox/orchestrator/internal/core/domain"
)

// RiskScoring combines the debt ratio and the requested amount into a
// single risk metric:
//
//	risk = dti*100 + (amount/max_allowed)*20
//
// A supplied country_caps map replaces the default caps entirely.
type RiskScoring struct{}

type riskParams struct {
	ApproveThreshold float64        `mapstructure:"approve_threshold"`
	CountryCaps      map[string]any `mapstructure:"country_caps"`
}

func (RiskScoring) Type() string { return domain.StepTypeRiskScoring }

func (RiskScoring) DefaultParams() map[string]any {
	return map[string]any{
		"approve_threshold": 45,
		"country_caps":      defaultCountryCaps(),
	}
}

func (s RiskScoring) Execute(_ context.Context, app *domain.Application, params map[string]any) (*domain.StepResult, error) {
	var p riskParams
	if err := decodeParams(s.Type(), mergeParams(s.DefaultParams(), params), &p); err != nil {
		return nil, err
	}

	dti := 1.0
	if app.MonthlyIncome > 0 {
		dti = float64(app.DeclaredDebts) / float64(app.MonthlyIncome)
	}

	maxAllowed, err := capFor(p.CountryCaps, app.Country)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Type(), err)
	}
	if maxAllowed == 0 {
		return nil, fmt.Errorf("%s: max allowed amount for %q is zero", s.Type(), app.Country)
	}

	risk := dti*100 + (float64(app.Amount)/maxAllowed)*20
	passed := risk <= p.ApproveThreshold

	return &domain.StepResult{
		Passed: passed,
		ComputedValues: domain.Values{
			"risk":              round(risk, 2),
			"approve_threshold": numericValue(p.ApproveThreshold),
			"dti":               round(dti, 4),
			"amount":            app.Amount,
			"max_allowed":       numericValue(maxAllowed),
		},
		Message: fmt.Sprintf("Risk score: %.2f (threshold: %s) - %s", risk, number(p.ApproveThreshold), verdict(passed)),
	}, nil
}
