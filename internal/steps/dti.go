package steps

import (
	"context"
	"fmt"
	"math"

	"github.com/loanbox/orchestrator/internal/core/domain"
)

// DTIRule checks whether the applicant's debt burden is reasonable.
type DTIRule struct{}

type dtiParams struct {
	MaxDTI float64 `mapstructure:"max_dti"`
}

func (DTIRule) Type() string { return domain.StepTypeDTIRule }

func (DTIRule) DefaultParams() map[string]any {
	return map[string]any{"max_dti": 0.40}
}

func (s DTIRule) Execute(_ context.Context, app *domain.Application, params map[string]any) (*domain.StepResult, error) {
	var p dtiParams
	if err := decodeParams(s.Type(), mergeParams(s.DefaultParams(), params), &p); err != nil {
		return nil, err
	}

	dti := math.Inf(1)
	if app.MonthlyIncome > 0 {
		dti = float64(app.DeclaredDebts) / float64(app.MonthlyIncome)
	}
	passed := dti < p.MaxDTI

	return &domain.StepResult{
		Passed: passed,
		ComputedValues: domain.Values{
			"dti":            round(dti, 4),
			"max_dti":        p.MaxDTI,
			"monthly_income": app.MonthlyIncome,
			"declared_debts": app.DeclaredDebts,
		},
		Message: fmt.Sprintf("DTI ratio: %s (max allowed: %s) - %s", percent(dti), percent(p.MaxDTI), verdict(passed)),
	}, nil
}
