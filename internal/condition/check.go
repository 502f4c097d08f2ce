package condition

import (
	"strings"

	"github.com/loanbox/orchestrator/internal/core/domain"
)

// Check reports whether expr parses under the condition grammar. It returns
// an unknown condition error naming the first leaf that matches no form.
func Check(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return domain.ErrUnknownConditionOperator(expr)
	}
	if strings.EqualFold(strings.TrimSpace(expr), "else") {
		return nil
	}
	for _, sep := range []string{orSep, andSep} {
		if strings.Contains(expr, sep) {
			for _, part := range strings.Split(expr, sep) {
				if err := Check(strings.TrimSpace(part)); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if strings.Contains(expr, ".failed") || strings.Contains(expr, ".passed") || findOperator(expr) != "" {
		return nil
	}
	return domain.ErrUnknownConditionOperator(expr)
}

// CheckRules runs Check over every rule condition.
func CheckRules(rules []domain.TerminalRule) error {
	for _, r := range rules {
		if err := Check(r.Condition); err != nil {
			return err
		}
	}
	return nil
}
