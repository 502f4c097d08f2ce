package steps

import (
	"context"
	"fmt"

	"github.com/loanbox/orchestrator/internal/core/domain"
)

// AmountPolicy enforces country-specific loan limits. Its params are a flat
// map of country code to cap, merged over the default caps.
type AmountPolicy struct{}

func (AmountPolicy) Type() string { return domain.StepTypeAmountPolicy }

func (AmountPolicy) DefaultParams() map[string]any {
	return defaultCountryCaps()
}

func (s AmountPolicy) Execute(_ context.Context, app *domain.Application, params map[string]any) (*domain.StepResult, error) {
	caps := mergeParams(s.DefaultParams(), params)

	limit, err := capFor(caps, app.Country)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Type(), err)
	}
	passed := float64(app.Amount) <= limit

	return &domain.StepResult{
		Passed: passed,
		ComputedValues: domain.Values{
			"amount":       app.Amount,
			"country":      app.Country,
			"cap":          numericValue(limit),
			"country_caps": caps,
		},
		Message: fmt.Sprintf("Loan amount: %d %s (max allowed: %s) - %s", app.Amount, app.Country, number(limit), verdict(passed)),
	}, nil
}
