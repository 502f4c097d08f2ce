package condition

import "github.com/loanbox/orchestrator/internal/core/domain"

// EvaluateRules runs terminal rules in order and returns the outcome of the
// first rule that holds, or NEEDS_REVIEW when none does. Every rule is
// logged; rules after the match are logged as not evaluated.
func EvaluateRules(rules []domain.TerminalRule, results Results) (domain.FinalStatus, []domain.TerminalRuleLog) {
	status := domain.StatusNeedsReview
	logs := make([]domain.TerminalRuleLog, 0, len(rules))
	matched := false

	for _, rule := range domain.SortRules(rules) {
		log := domain.TerminalRuleLog{
			Condition: rule.Condition,
			Outcome:   rule.Outcome,
			Order:     rule.Order,
		}

		if matched {
			log.Reason = "Not evaluated (previous rule matched)"
			logs = append(logs, log)
			continue
		}

		ok, reason := Evaluate(rule.Condition, results)
		log.Evaluated = true
		if ok {
			matched = true
			status = rule.Outcome
			log.Matched = true
			log.Reason = "Rule matched: " + reason
		} else {
			log.Reason = "Rule not matched: " + reason
		}
		logs = append(logs, log)
	}

	return status, logs
}
