package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StepConfig configures one step of a pipeline.
type StepConfig struct {
	StepType string         `json:"step_type" yaml:"step_type"`
	Order    int            `json:"order" yaml:"order"`
	Params   map[string]any `json:"params" yaml:"params,omitempty"`
}

// TerminalRule maps a condition over step results to a final status.
type TerminalRule struct {
	Condition string      `json:"condition" yaml:"condition"`
	Outcome   FinalStatus `json:"outcome" yaml:"outcome"`
	Order     int         `json:"order" yaml:"order"`
}

// Pipeline is an ordered list of steps followed by ordered terminal rules.
type Pipeline struct {
	ID            int64          `json:"id" yaml:"id,omitempty"`
	Name          string         `json:"name" yaml:"name"`
	Description   *string        `json:"description" yaml:"description,omitempty"`
	Steps         []StepConfig   `json:"steps" yaml:"steps"`
	TerminalRules []TerminalRule `json:"terminal_rules" yaml:"terminal_rules"`
	CreatedAt     time.Time      `json:"created_at" yaml:"-"`
}

// PipelineUpdate holds a partial pipeline update. Nil fields are left unchanged.
type PipelineUpdate struct {
	Name          *string        `json:"name"`
	Description   *string        `json:"description"`
	Steps         []StepConfig   `json:"steps"`
	TerminalRules []TerminalRule `json:"terminal_rules"`
}

// SortedSteps returns the step configs ordered by Order. Steps sharing an
// order keep their declared relative position.
func (p *Pipeline) SortedSteps() []StepConfig {
	return SortSteps(p.Steps)
}

// SortedRules returns the terminal rules ordered by Order.
func (p *Pipeline) SortedRules() []TerminalRule {
	return SortRules(p.TerminalRules)
}

// SortSteps returns a stably sorted copy of steps.
func SortSteps(steps []StepConfig) []StepConfig {
	sorted := make([]StepConfig, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// SortRules returns a stably sorted copy of rules.
func SortRules(rules []TerminalRule) []TerminalRule {
	sorted := make([]TerminalRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// Validate checks the structural invariants of a pipeline definition.
// Step type resolution is checked by the caller against its registry.
func (p *Pipeline) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidRequest("name must not be empty").WithParam("name")
	}
	if err := ValidateSteps(p.Steps); err != nil {
		return err
	}
	return ValidateRules(p.TerminalRules)
}

// ValidateSteps checks a step list.
func ValidateSteps(steps []StepConfig) error {
	if len(steps) == 0 {
		return ErrInvalidRequest("pipeline must have at least one step").WithParam("steps")
	}
	for i, s := range steps {
		if s.StepType == "" {
			return ErrInvalidRequest(fmt.Sprintf("steps[%d].step_type must not be empty", i)).WithParam("steps")
		}
		if s.Order < 1 {
			return ErrInvalidRequest(fmt.Sprintf("steps[%d].order must be at least 1", i)).WithParam("steps")
		}
	}
	return nil
}

// ValidateRules checks a terminal rule list.
func ValidateRules(rules []TerminalRule) error {
	if len(rules) == 0 {
		return ErrInvalidRequest("pipeline must have at least one terminal rule").WithParam("terminal_rules")
	}
	for i, r := range rules {
		if r.Condition == "" {
			return ErrInvalidRequest(fmt.Sprintf("terminal_rules[%d].condition must not be empty", i)).WithParam("terminal_rules")
		}
		if !r.Outcome.IsOutcome() {
			return ErrInvalidRequest(fmt.Sprintf("terminal_rules[%d].outcome %q is not a valid outcome", i, r.Outcome)).WithParam("terminal_rules")
		}
		if r.Order < 1 {
			return ErrInvalidRequest(fmt.Sprintf("terminal_rules[%d].order must be at least 1", i)).WithParam("terminal_rules")
		}
	}
	return nil
}

// Validate checks the fields present in the update.
func (u *PipelineUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return ErrInvalidRequest("name must not be empty").WithParam("name")
	}
	if u.Steps != nil {
		if err := ValidateSteps(u.Steps); err != nil {
			return err
		}
	}
	if u.TerminalRules != nil {
		if err := ValidateRules(u.TerminalRules); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the update into p.
func (u *PipelineUpdate) Apply(p *Pipeline) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = u.Description
	}
	if u.Steps != nil {
		p.Steps = u.Steps
	}
	if u.TerminalRules != nil {
		p.TerminalRules = u.TerminalRules
	}
}
