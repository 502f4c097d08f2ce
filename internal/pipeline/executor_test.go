package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/core/ports"
	"github.com/loanbox/orchestrator/internal/metrics"
	"github.com/loanbox/orchestrator/internal/steps"
)

// fakeStore is a minimal ports.Store that records writes.
type fakeStore struct {
	mu           sync.Mutex
	applications map[int64]*domain.Application
	pipelines    map[int64]*domain.Pipeline
	runs         []*domain.Run
	statusErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		applications: make(map[int64]*domain.Application),
		pipelines:    make(map[int64]*domain.Pipeline),
	}
}

func (s *fakeStore) CreateApplication(_ context.Context, app *domain.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app.ID = int64(len(s.applications) + 1)
	app.Status = domain.StatusPending
	s.applications[app.ID] = app
	return nil
}

func (s *fakeStore) GetApplication(_ context.Context, id int64) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, domain.ErrNotFound("application not found")
	}
	cp := *app
	return &cp, nil
}

func (s *fakeStore) ListApplications(context.Context, ports.ListOptions) ([]*domain.Application, error) {
	return nil, nil
}

func (s *fakeStore) UpdateApplicationStatus(_ context.Context, id int64, status domain.FinalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return s.statusErr
	}
	s.applications[id].Status = status
	return nil
}

func (s *fakeStore) CreatePipeline(_ context.Context, p *domain.Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = int64(len(s.pipelines) + 1)
	s.pipelines[p.ID] = p
	return nil
}

func (s *fakeStore) GetPipeline(_ context.Context, id int64) (*domain.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pipelines[id]
	if !ok {
		return nil, domain.ErrNotFound("pipeline not found")
	}
	return p, nil
}

func (s *fakeStore) ListPipelines(context.Context, ports.ListOptions) ([]*domain.Pipeline, error) {
	return nil, nil
}

func (s *fakeStore) UpdatePipeline(context.Context, int64, *domain.PipelineUpdate) (*domain.Pipeline, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) SaveRun(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = int64(len(s.runs) + 1)
	run.ExecutedAt = time.Now()
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) GetRun(context.Context, int64) (*domain.Run, error) { return nil, nil }

func (s *fakeStore) ListRuns(context.Context, ports.ListOptions) ([]*domain.Run, error) {
	return nil, nil
}

func (s *fakeStore) Close() error { return nil }

func standardPipeline() *domain.Pipeline {
	return &domain.Pipeline{
		Name: "Standard Loan Pipeline",
		Steps: []domain.StepConfig{
			{StepType: "dti_rule", Order: 1, Params: map[string]any{"max_dti": 0.40}},
			{StepType: "amount_policy", Order: 2, Params: map[string]any{"ES": 30000, "FR": 25000, "DE": 35000, "OTHER": 20000}},
			{StepType: "risk_scoring", Order: 3, Params: map[string]any{"approve_threshold": 45}},
		},
		TerminalRules: []domain.TerminalRule{
			{Condition: "dti_rule.failed OR amount_policy.failed", Outcome: domain.StatusRejected, Order: 1},
			{Condition: "risk_scoring.risk <= 45", Outcome: domain.StatusApproved, Order: 2},
			{Condition: "else", Outcome: domain.StatusNeedsReview, Order: 3},
		},
	}
}

func applicant(name string, amount, income, debts int64, country, purpose string) *domain.Application {
	return &domain.Application{
		ApplicantName: name,
		Amount:        amount,
		MonthlyIncome: income,
		DeclaredDebts: debts,
		Country:       country,
		LoanPurpose:   purpose,
	}
}

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		app    *domain.Application
		risk   float64
		status domain.FinalStatus
	}{
		{applicant("Ana", 12000, 4000, 500, "ES", "home improvement"), 20.5, domain.StatusApproved},
		{applicant("Luis", 28000, 2000, 1200, "OTHER", "business"), 88, domain.StatusRejected},
		{applicant("Mia", 20000, 3000, 900, "FR", "education"), 46, domain.StatusNeedsReview},
	}

	reg := steps.NewDefaultRegistry(nil)
	for _, tt := range tests {
		t.Run(tt.app.ApplicantName, func(t *testing.T) {
			out, err := Evaluate(context.Background(), reg, tt.app, standardPipeline())
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if out.FinalStatus != tt.status {
				t.Errorf("FinalStatus = %s, want %s", out.FinalStatus, tt.status)
			}
			if len(out.StepLogs) != 3 || len(out.TerminalRuleLogs) != 3 {
				t.Fatalf("logs = %d steps, %d rules", len(out.StepLogs), len(out.TerminalRuleLogs))
			}
			if got := out.StepLogs[2].ComputedValues["risk"]; got != tt.risk {
				t.Errorf("risk = %v, want %v", got, tt.risk)
			}
		})
	}
}

func TestEvaluate_SentimentScenario(t *testing.T) {
	p := standardPipeline()
	p.Steps = append(p.Steps, domain.StepConfig{StepType: "sentiment_check", Order: 4})
	p.TerminalRules = []domain.TerminalRule{
		{Condition: "sentiment_check.risk_score >= 70", Outcome: domain.StatusRejected, Order: 1},
		{Condition: "else", Outcome: domain.StatusApproved, Order: 2},
	}

	out, err := Evaluate(context.Background(), steps.NewDefaultRegistry(nil), applicant("Eva", 15000, 5000, 200, "ES", "gambling"), p)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if out.FinalStatus != domain.StatusRejected {
		t.Errorf("FinalStatus = %s, want REJECTED", out.FinalStatus)
	}
	sentiment := out.StepLogs[3]
	if sentiment.ComputedValues["risk_score"] != int64(85) {
		t.Errorf("risk_score = %v, want 85", sentiment.ComputedValues["risk_score"])
	}
	if !strings.HasPrefix(out.TerminalRuleLogs[0].Reason, "Rule matched: sentiment_check.risk_score(85) >= 70(70)") {
		t.Errorf("reason = %q", out.TerminalRuleLogs[0].Reason)
	}
}

func TestEvaluate_StepOrderAndDuplicates(t *testing.T) {
	p := &domain.Pipeline{
		Name: "dup",
		Steps: []domain.StepConfig{
			{StepType: "dti_rule", Order: 2, Params: map[string]any{"max_dti": 0.01}},
			{StepType: "amount_policy", Order: 1},
			{StepType: "dti_rule", Order: 3, Params: map[string]any{"max_dti": 0.9}},
		},
		TerminalRules: []domain.TerminalRule{
			{Condition: "dti_rule.passed", Outcome: domain.StatusApproved, Order: 1},
		},
	}

	out, err := Evaluate(context.Background(), steps.NewDefaultRegistry(nil), applicant("x", 100, 1000, 100, "ES", "car"), p)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	var order []string
	for _, l := range out.StepLogs {
		order = append(order, l.StepType)
	}
	if strings.Join(order, ",") != "amount_policy,dti_rule,dti_rule" {
		t.Errorf("step order = %v", order)
	}
	if out.StepLogs[1].Passed || !out.StepLogs[2].Passed {
		t.Errorf("step results = %+v", out.StepLogs)
	}
	// Rules see the later dti_rule result.
	if out.FinalStatus != domain.StatusApproved {
		t.Errorf("FinalStatus = %s, want APPROVED", out.FinalStatus)
	}
}

func TestEvaluate_UnknownStepType(t *testing.T) {
	p := standardPipeline()
	p.Steps = append(p.Steps, domain.StepConfig{StepType: "credit_bureau", Order: 9})

	_, err := Evaluate(context.Background(), steps.NewDefaultRegistry(nil), applicant("x", 1, 1, 0, "ES", "car"), p)
	if !domain.IsUnknownStepType(err) {
		t.Errorf("Evaluate() error = %v, want unknown step type", err)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	reg := steps.NewDefaultRegistry(nil)
	app := applicant("Mia", 20000, 3000, 900, "FR", "education")

	first, err := Evaluate(context.Background(), reg, app, standardPipeline())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	second, err := Evaluate(context.Background(), reg, app, standardPipeline())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	for i := range first.TerminalRuleLogs {
		if first.TerminalRuleLogs[i] != second.TerminalRuleLogs[i] {
			t.Errorf("rule log %d differs: %+v vs %+v", i, first.TerminalRuleLogs[i], second.TerminalRuleLogs[i])
		}
	}
}

func TestExecutor_Execute(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	apps := []*domain.Application{
		applicant("Ana", 12000, 4000, 500, "ES", "home improvement"),
		applicant("Luis", 28000, 2000, 1200, "OTHER", "business"),
	}
	for _, a := range apps {
		if err := store.CreateApplication(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	p := standardPipeline()
	if err := store.CreatePipeline(ctx, p); err != nil {
		t.Fatal(err)
	}

	m := metrics.New(prometheus.NewRegistry())
	e := NewExecutor(store, steps.NewDefaultRegistry(nil), WithMetrics(m))

	for _, a := range apps {
		run, err := e.Execute(ctx, a.ID, p.ID)
		if err != nil {
			t.Fatalf("Execute(%s) error = %v", a.ApplicantName, err)
		}
		if run.ID == 0 || run.ExecutedAt.IsZero() {
			t.Errorf("run not persisted: %+v", run)
		}
		stored, _ := store.GetApplication(ctx, a.ID)
		if stored.Status != run.FinalStatus {
			t.Errorf("application status = %s, run status = %s", stored.Status, run.FinalStatus)
		}
	}

	if len(store.runs) != 2 {
		t.Errorf("runs = %d, want 2", len(store.runs))
	}
	if got := testutil.ToFloat64(m.RunOutcome.WithLabelValues("APPROVED")); got != 1 {
		t.Errorf("APPROVED runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StepOutcome.WithLabelValues("dti_rule", "false")); got != 1 {
		t.Errorf("failed dti_rule steps = %v, want 1", got)
	}
}

func TestExecutor_NotFound(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	app := applicant("Ana", 12000, 4000, 500, "ES", "home improvement")
	_ = store.CreateApplication(ctx, app)

	e := NewExecutor(store, steps.NewDefaultRegistry(nil))

	_, err := e.Execute(ctx, 99, 1)
	if !domain.IsNotFound(err) || !strings.Contains(err.Error(), "Application 99 not found") {
		t.Errorf("Execute(missing app) error = %v", err)
	}

	_, err = e.Execute(ctx, app.ID, 42)
	if !domain.IsNotFound(err) || !strings.Contains(err.Error(), "Pipeline 42 not found") {
		t.Errorf("Execute(missing pipeline) error = %v", err)
	}

	if len(store.runs) != 0 {
		t.Errorf("runs = %d, want 0", len(store.runs))
	}
}

func TestExecutor_StatusWriteFailure(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	app := applicant("Ana", 12000, 4000, 500, "ES", "home improvement")
	_ = store.CreateApplication(ctx, app)
	p := standardPipeline()
	_ = store.CreatePipeline(ctx, p)
	store.statusErr = errors.New("disk full")

	_, err := NewExecutor(store, steps.NewDefaultRegistry(nil)).Execute(ctx, app.ID, p.ID)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Execute() error = %v", err)
	}
	if len(store.runs) != 0 {
		t.Error("run saved despite status write failure")
	}
}

func TestOutcome_RuleLogsSortedByOrder(t *testing.T) {
	p := standardPipeline()
	// Reverse the declared rule order; evaluation must still follow Order.
	sort.SliceStable(p.TerminalRules, func(i, j int) bool {
		return p.TerminalRules[i].Order > p.TerminalRules[j].Order
	})

	out, err := Evaluate(context.Background(), steps.NewDefaultRegistry(nil), applicant("Ana", 12000, 4000, 500, "ES", "x"), p)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	for i, l := range out.TerminalRuleLogs {
		if l.Order != i+1 {
			t.Errorf("log %d has order %d", i, l.Order)
		}
	}
	if out.FinalStatus != domain.StatusApproved {
		t.Errorf("FinalStatus = %s, want APPROVED", out.FinalStatus)
	}
}
