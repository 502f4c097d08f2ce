package domain

import "time"

// StepResult is the outcome of executing one step against an application.
type StepResult struct {
	Passed         bool   `json:"passed"`
	ComputedValues Values `json:"computed_values"`
	Message        string `json:"message"`
}

// StepLog records a step execution within a run.
type StepLog struct {
	StepType       string `json:"step_type"`
	Order          int    `json:"order"`
	Passed         bool   `json:"passed"`
	ComputedValues Values `json:"computed_values"`
	Message        string `json:"message"`
}

// TerminalRuleLog records how a terminal rule was handled within a run.
type TerminalRuleLog struct {
	Condition string      `json:"condition"`
	Outcome   FinalStatus `json:"outcome"`
	Order     int         `json:"order"`
	Evaluated bool        `json:"evaluated"`
	Matched   bool        `json:"matched"`
	Reason    string      `json:"reason"`
}

// Run is the immutable record of one pipeline execution.
type Run struct {
	ID               int64             `json:"id"`
	ApplicationID    int64             `json:"application_id"`
	PipelineID       int64             `json:"pipeline_id"`
	StepLogs         []StepLog         `json:"step_logs"`
	TerminalRuleLogs []TerminalRuleLog `json:"terminal_rule_logs"`
	FinalStatus      FinalStatus       `json:"final_status"`
	ExecutedAt       time.Time         `json:"executed_at"`
}
