// Package storagetest holds the behavior every storage.Store implementation
// must share. Store packages call Run from their own tests.
package storagetest

import (
	"context"
	"math"
	"testing"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/storage"
)

// Run exercises s against the storage contract. s must be empty.
func Run(t *testing.T, s storage.Store) {
	t.Helper()

	t.Run("Applications", func(t *testing.T) { testApplications(t, s) })
	t.Run("Pipelines", func(t *testing.T) { testPipelines(t, s) })
	t.Run("Runs", func(t *testing.T) { testRuns(t, s) })
}

// Application returns a valid application for use in store tests.
func Application(name string) *domain.Application {
	return &domain.Application{
		ApplicantName: name,
		Amount:        12000,
		MonthlyIncome: 4000,
		DeclaredDebts: 500,
		Country:       "ES",
		LoanPurpose:   "home renovation",
	}
}

// Pipeline returns a two-step pipeline for use in store tests.
func Pipeline(name string) *domain.Pipeline {
	desc := "test pipeline"
	return &domain.Pipeline{
		Name:        name,
		Description: &desc,
		Steps: []domain.StepConfig{
			{StepType: domain.StepTypeDTIRule, Order: 1, Params: map[string]any{"max_dti": 0.4}},
			{StepType: domain.StepTypeAmountPolicy, Order: 2},
		},
		TerminalRules: []domain.TerminalRule{
			{Condition: "dti_rule.failed", Outcome: domain.StatusRejected, Order: 1},
			{Condition: "else", Outcome: domain.StatusApproved, Order: 2},
		},
	}
}

func testApplications(t *testing.T, s storage.Store) {
	ctx := context.Background()

	for _, name := range []string{"Ana", "Luis", "Mia"} {
		app := Application(name)
		if err := s.CreateApplication(ctx, app); err != nil {
			t.Fatalf("CreateApplication(%s) error = %v", name, err)
		}
		if app.ID == 0 {
			t.Fatalf("CreateApplication(%s) did not assign an ID", name)
		}
		if app.Status != domain.StatusPending {
			t.Errorf("Status = %q, want PENDING", app.Status)
		}
		if app.CreatedAt.IsZero() {
			t.Error("CreatedAt not set")
		}
	}

	list, err := s.ListApplications(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListApplications() error = %v", err)
	}
	if len(list) != 3 || list[0].ApplicantName != "Ana" || list[2].ApplicantName != "Mia" {
		t.Fatalf("ListApplications() = %d items, want Ana..Mia", len(list))
	}

	page, err := s.ListApplications(ctx, storage.ListOptions{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("ListApplications(page) error = %v", err)
	}
	if len(page) != 1 || page[0].ApplicantName != "Luis" {
		t.Errorf("ListApplications(offset=1, limit=1) = %v, want [Luis]", page)
	}

	id := list[1].ID
	if err := s.UpdateApplicationStatus(ctx, id, domain.StatusApproved); err != nil {
		t.Fatalf("UpdateApplicationStatus() error = %v", err)
	}
	got, err := s.GetApplication(ctx, id)
	if err != nil {
		t.Fatalf("GetApplication() error = %v", err)
	}
	if got.Status != domain.StatusApproved || got.Amount != 12000 || got.Country != "ES" {
		t.Errorf("GetApplication() = %+v", got)
	}

	if _, err := s.GetApplication(ctx, 9999); !domain.IsNotFound(err) {
		t.Errorf("GetApplication(9999) error = %v, want not found", err)
	}
	if err := s.UpdateApplicationStatus(ctx, 9999, domain.StatusApproved); !domain.IsNotFound(err) {
		t.Errorf("UpdateApplicationStatus(9999) error = %v, want not found", err)
	}
}

func testPipelines(t *testing.T, s storage.Store) {
	ctx := context.Background()

	p := Pipeline("Standard")
	if err := s.CreatePipeline(ctx, p); err != nil {
		t.Fatalf("CreatePipeline() error = %v", err)
	}
	if p.ID == 0 {
		t.Fatal("CreatePipeline() did not assign an ID")
	}

	got, err := s.GetPipeline(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPipeline() error = %v", err)
	}
	if got.Name != "Standard" || got.Description == nil || *got.Description != "test pipeline" {
		t.Errorf("GetPipeline() = %+v", got)
	}
	if len(got.Steps) != 2 || got.Steps[0].StepType != domain.StepTypeDTIRule {
		t.Fatalf("Steps = %+v", got.Steps)
	}
	if v, ok := got.Steps[0].Params["max_dti"].(float64); !ok || v != 0.4 {
		t.Errorf("max_dti param = %v, want 0.4", got.Steps[0].Params["max_dti"])
	}
	if len(got.TerminalRules) != 2 || got.TerminalRules[1].Outcome != domain.StatusApproved {
		t.Errorf("TerminalRules = %+v", got.TerminalRules)
	}

	// Mutating a returned pipeline must not change the stored one.
	got.Steps[0].Params["max_dti"] = 0.9
	again, err := s.GetPipeline(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPipeline() error = %v", err)
	}
	if again.Steps[0].Params["max_dti"] != 0.4 {
		t.Errorf("stored params changed through returned copy: %v", again.Steps[0].Params)
	}

	name := "Renamed"
	updated, err := s.UpdatePipeline(ctx, p.ID, &domain.PipelineUpdate{
		Name: &name,
		TerminalRules: []domain.TerminalRule{
			{Condition: "else", Outcome: domain.StatusNeedsReview, Order: 1},
		},
	})
	if err != nil {
		t.Fatalf("UpdatePipeline() error = %v", err)
	}
	if updated.Name != "Renamed" || len(updated.Steps) != 2 || len(updated.TerminalRules) != 1 {
		t.Errorf("UpdatePipeline() = %+v", updated)
	}
	if updated.Description == nil || *updated.Description != "test pipeline" {
		t.Error("UpdatePipeline() dropped the description")
	}

	again, err = s.GetPipeline(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPipeline() error = %v", err)
	}
	if again.Name != "Renamed" || again.TerminalRules[0].Outcome != domain.StatusNeedsReview {
		t.Errorf("GetPipeline() after update = %+v", again)
	}

	list, err := s.ListPipelines(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListPipelines() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListPipelines() = %d items, want 1", len(list))
	}

	if _, err := s.GetPipeline(ctx, 9999); !domain.IsNotFound(err) {
		t.Errorf("GetPipeline(9999) error = %v, want not found", err)
	}
	if _, err := s.UpdatePipeline(ctx, 9999, &domain.PipelineUpdate{Name: &name}); !domain.IsNotFound(err) {
		t.Errorf("UpdatePipeline(9999) error = %v, want not found", err)
	}
}

func testRuns(t *testing.T, s storage.Store) {
	ctx := context.Background()

	app := Application("Run")
	if err := s.CreateApplication(ctx, app); err != nil {
		t.Fatalf("CreateApplication() error = %v", err)
	}
	p := Pipeline("Runs")
	if err := s.CreatePipeline(ctx, p); err != nil {
		t.Fatalf("CreatePipeline() error = %v", err)
	}

	var ids []int64
	for _, status := range []domain.FinalStatus{domain.StatusApproved, domain.StatusRejected} {
		run := &domain.Run{
			ApplicationID: app.ID,
			PipelineID:    p.ID,
			StepLogs: []domain.StepLog{{
				StepType:       domain.StepTypeDTIRule,
				Order:          1,
				Passed:         true,
				ComputedValues: domain.Values{"dti": math.Inf(1), "max_dti": 0.4},
				Message:        "DTI ratio: inf% (max allowed: 40.0%) - FAILED",
			}},
			TerminalRuleLogs: []domain.TerminalRuleLog{{
				Condition: "else", Outcome: status, Order: 1, Evaluated: true, Matched: true, Reason: "Fallback rule",
			}},
			FinalStatus: status,
		}
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
		if run.ID == 0 || run.ExecutedAt.IsZero() {
			t.Fatalf("SaveRun() did not assign ID/ExecutedAt: %+v", run)
		}
		ids = append(ids, run.ID)
	}

	got, err := s.GetRun(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.ApplicationID != app.ID || got.PipelineID != p.ID || got.FinalStatus != domain.StatusApproved {
		t.Errorf("GetRun() = %+v", got)
	}
	if len(got.StepLogs) != 1 || got.StepLogs[0].ComputedValues["dti"] != "Infinity" {
		t.Errorf("StepLogs = %+v, want dti stored as \"Infinity\"", got.StepLogs)
	}
	if got.StepLogs[0].ComputedValues["max_dti"] != 0.4 {
		t.Errorf("max_dti = %v, want 0.4", got.StepLogs[0].ComputedValues["max_dti"])
	}
	if len(got.TerminalRuleLogs) != 1 || !got.TerminalRuleLogs[0].Matched {
		t.Errorf("TerminalRuleLogs = %+v", got.TerminalRuleLogs)
	}

	list, err := s.ListRuns(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != ids[1] || list[1].ID != ids[0] {
		t.Errorf("ListRuns() not newest first: %v", list)
	}

	if _, err := s.GetRun(ctx, 9999); !domain.IsNotFound(err) {
		t.Errorf("GetRun(9999) error = %v, want not found", err)
	}
}
