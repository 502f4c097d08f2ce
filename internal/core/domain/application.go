package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Application is a loan application submitted for evaluation.
type Application struct {
	ID            int64       `json:"id" yaml:"id,omitempty"`
	ApplicantName string      `json:"applicant_name" yaml:"applicant_name"`
	Amount        int64       `json:"amount" yaml:"amount"`
	MonthlyIncome int64       `json:"monthly_income" yaml:"monthly_income"`
	DeclaredDebts int64       `json:"declared_debts" yaml:"declared_debts"`
	Country       string      `json:"country" yaml:"country"`
	LoanPurpose   string      `json:"loan_purpose" yaml:"loan_purpose"`
	Status        FinalStatus `json:"status" yaml:"status,omitempty"`
	CreatedAt     time.Time   `json:"created_at" yaml:"-"`
}

// Validate checks the fields a caller supplies when creating an application.
func (a *Application) Validate() error {
	if strings.TrimSpace(a.ApplicantName) == "" {
		return ErrInvalidRequest("applicant_name must not be empty").WithParam("applicant_name")
	}
	if a.Amount <= 0 {
		return ErrInvalidRequest("amount must be greater than 0").WithParam("amount")
	}
	if a.MonthlyIncome <= 0 {
		return ErrInvalidRequest("monthly_income must be greater than 0").WithParam("monthly_income")
	}
	if a.DeclaredDebts < 0 {
		return ErrInvalidRequest("declared_debts must not be negative").WithParam("declared_debts")
	}
	if n := utf8.RuneCountInString(a.Country); n < 2 || n > 10 {
		return ErrInvalidRequest("country must be between 2 and 10 characters").WithParam("country")
	}
	if a.LoanPurpose == "" {
		return ErrInvalidRequest("loan_purpose must not be empty").WithParam("loan_purpose")
	}
	if a.Status != "" && !a.Status.Valid() {
		return ErrInvalidRequest("unknown status " + string(a.Status)).WithParam("status")
	}
	return nil
}
