package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func validApplication() Application {
	return Application{
		ApplicantName: "Ana",
		Amount:        12000,
		MonthlyIncome: 4000,
		DeclaredDebts: 500,
		Country:       "ES",
		LoanPurpose:   "home renovation",
	}
}

func TestApplication_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Application)
		param  string
	}{
		{"valid", func(*Application) {}, ""},
		{"blank name", func(a *Application) { a.ApplicantName = "  " }, "applicant_name"},
		{"zero amount", func(a *Application) { a.Amount = 0 }, "amount"},
		{"zero income", func(a *Application) { a.MonthlyIncome = 0 }, "monthly_income"},
		{"negative debts", func(a *Application) { a.DeclaredDebts = -1 }, "declared_debts"},
		{"short country", func(a *Application) { a.Country = "E" }, "country"},
		{"long country", func(a *Application) { a.Country = "ESPANAESPAN" }, "country"},
		{"empty purpose", func(a *Application) { a.LoanPurpose = "" }, "loan_purpose"},
		{"bad status", func(a *Application) { a.Status = "DONE" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(&app)
			err := app.Validate()
			if tt.param == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("Validate() error = %v, want *APIError", err)
			}
			if apiErr.Param != tt.param {
				t.Errorf("Param = %q, want %q", apiErr.Param, tt.param)
			}
		})
	}
}

func TestPipeline_Validate(t *testing.T) {
	p := Pipeline{
		Name:          "p",
		Steps:         []StepConfig{{StepType: StepTypeDTIRule, Order: 1}},
		TerminalRules: []TerminalRule{{Condition: "else", Outcome: StatusNeedsReview, Order: 1}},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	p.TerminalRules[0].Outcome = StatusPending
	if err := p.Validate(); err == nil {
		t.Error("expected PENDING outcome to be rejected")
	}

	p.TerminalRules = nil
	if err := p.Validate(); err == nil {
		t.Error("expected empty rules to be rejected")
	}
}

func TestPipelineUpdate_ValidateAndApply(t *testing.T) {
	empty := []StepConfig{}
	if err := (&PipelineUpdate{Steps: empty}).Validate(); err == nil {
		t.Error("expected empty step list to be rejected")
	}

	name := "renamed"
	p := Pipeline{Name: "p", Steps: []StepConfig{{StepType: "a", Order: 1}}}
	u := PipelineUpdate{Name: &name}
	if err := u.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	u.Apply(&p)
	if p.Name != "renamed" || len(p.Steps) != 1 {
		t.Errorf("Apply() = %+v", p)
	}
}

func TestSortSteps_Stable(t *testing.T) {
	steps := []StepConfig{
		{StepType: "c", Order: 2},
		{StepType: "a", Order: 1},
		{StepType: "b", Order: 1},
	}
	sorted := SortSteps(steps)
	got := []string{sorted[0].StepType, sorted[1].StepType, sorted[2].StepType}
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("SortSteps() = %v, want a,b,c", got)
	}
	if steps[0].StepType != "c" {
		t.Error("SortSteps() modified its input")
	}
}

func TestValues_MarshalNonFinite(t *testing.T) {
	v := Values{
		"dti":    math.Inf(1),
		"nested": map[string]any{"x": math.NaN()},
		"amount": int64(10),
	}
	data, err := json.Marshal(StepLog{StepType: "dti_rule", ComputedValues: v})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	for _, want := range []string{`"dti":"Infinity"`, `"x":"NaN"`, `"amount":10`} {
		if !strings.Contains(s, want) {
			t.Errorf("marshaled %s, missing %s", s, want)
		}
	}
}
