// Package steps implements the pipeline step catalog.
//
// # Adding a New Step
//
// Implement ports.Step and register an instance on the registry the
// executor and API share:
//
//	reg := steps.NewDefaultRegistry(classifier)
//	reg.Register(MyStep{})
//
// Register panics on an empty or duplicate type, so registration belongs in
// process setup, never in request paths.
package steps

import (
	"fmt"
	"sync"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/core/ports"
)

// CatalogEntry describes a registered step and its default params.
type CatalogEntry struct {
	StepType      string         `json:"step_type" yaml:"step_type"`
	DefaultParams map[string]any `json:"default_params" yaml:"default_params"`
}

// Registry maps step type identifiers to implementations.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]ports.Step
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]ports.Step)}
}

// NewDefaultRegistry creates a registry holding the built-in steps.
// classifier may be nil.
func NewDefaultRegistry(classifier ports.TextClassifier, opts ...SentimentOption) *Registry {
	r := NewRegistry()
	r.Register(DTIRule{})
	r.Register(AmountPolicy{})
	r.Register(RiskScoring{})
	r.Register(NewSentimentCheck(classifier, opts...))
	return r
}

// Register adds a step. Panics if the type is empty or already registered.
func (r *Registry) Register(step ports.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := step.Type()
	if t == "" {
		panic("step type cannot be empty")
	}
	if _, exists := r.steps[t]; exists {
		panic(fmt.Sprintf("step %q already registered", t))
	}

	r.steps[t] = step
	r.order = append(r.order, t)
}

// Resolve returns the step for stepType or an unknown step type error.
func (r *Registry) Resolve(stepType string) (ports.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, ok := r.steps[stepType]
	if !ok {
		return nil, domain.ErrUnknownStepType(stepType)
	}
	return step, nil
}

// IsRegistered returns true if stepType is registered.
func (r *Registry) IsRegistered(stepType string) bool {
	_, err := r.Resolve(stepType)
	return err == nil
}

// Types returns the registered step types in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, len(r.order))
	copy(types, r.order)
	return types
}

// Catalog lists every registered step with its default params, in
// registration order.
func (r *Registry) Catalog() []CatalogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]CatalogEntry, 0, len(r.order))
	for _, t := range r.order {
		entries = append(entries, CatalogEntry{
			StepType:      t,
			DefaultParams: r.steps[t].DefaultParams(),
		})
	}
	return entries
}

// ValidateSteps checks that every configured step type is registered.
func (r *Registry) ValidateSteps(configs []domain.StepConfig) error {
	for _, c := range configs {
		if !r.IsRegistered(c.StepType) {
			return domain.ErrUnknownStepType(c.StepType).WithParam("steps")
		}
	}
	return nil
}
