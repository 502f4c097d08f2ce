// Package condition evaluates terminal rule conditions against step results.
//
// The language is deliberately small:
//
//	else
//	<step>.failed | <step>.passed
//	<operand> <op> <operand>        op: <= >= == < >
//	<cond> OR <cond> ...
//	<cond> AND <cond> ...
//
// OR is split before AND with plain substring splits, so
// "a.failed OR b.failed AND c.failed" is a two-branch OR whose second
// branch is an AND. There are no parentheses.
package condition

import (
	"fmt"
	"strings"

	"github.com/loanbox/orchestrator/internal/core/domain"
)

// Results maps step type to the latest result of that step in a run.
type Results map[string]*domain.StepResult

// Comparison operators in matching priority order.
var operators = []string{"<=", ">=", "==", "<", ">"}

const (
	orSep  = " OR "
	andSep = " AND "
)

// Evaluate reports whether expr holds for results, with a human-readable
// reason. It never fails: resolution and comparison errors evaluate to
// false with the error in the reason.
func Evaluate(expr string, results Results) (bool, string) {
	if strings.EqualFold(strings.TrimSpace(expr), "else") {
		return true, "Catch-all condition (else)"
	}

	if strings.Contains(expr, orSep) {
		reasons := make([]string, 0, 2)
		for _, part := range strings.Split(expr, orSep) {
			ok, reason := Evaluate(strings.TrimSpace(part), results)
			if ok {
				return true, "OR condition TRUE: " + reason
			}
			reasons = append(reasons, reason)
		}
		return false, "OR condition FALSE: " + strings.Join(reasons, andSep)
	}

	if strings.Contains(expr, andSep) {
		reasons := make([]string, 0, 2)
		for _, part := range strings.Split(expr, andSep) {
			ok, reason := Evaluate(strings.TrimSpace(part), results)
			if !ok {
				return false, "AND condition FALSE: " + reason
			}
			reasons = append(reasons, reason)
		}
		return true, "AND condition TRUE: " + strings.Join(reasons, andSep)
	}

	if strings.Contains(expr, ".failed") {
		return stepState(strings.TrimSpace(strings.ReplaceAll(expr, ".failed", "")), results, false)
	}

	if strings.Contains(expr, ".passed") {
		return stepState(strings.TrimSpace(strings.ReplaceAll(expr, ".passed", "")), results, true)
	}

	if op := findOperator(expr); op != "" {
		return comparison(expr, op, results)
	}

	return false, "Unknown condition format"
}

// stepState checks whether a step passed (wantPassed) or failed.
func stepState(step string, results Results, wantPassed bool) (bool, string) {
	res, ok := results[step]
	if !ok || res == nil {
		return false, step + " not found"
	}
	if res.Passed {
		return wantPassed, fmt.Sprintf("%s passed (%s)", step, res.Message)
	}
	return !wantPassed, fmt.Sprintf("%s failed (%s)", step, res.Message)
}

func findOperator(expr string) string {
	for _, op := range operators {
		if strings.Contains(expr, op) {
			return op
		}
	}
	return ""
}

func comparison(expr, op string, results Results) (bool, string) {
	parts := strings.SplitN(expr, op, 2)
	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])

	lv := Resolve(left, results)
	rv := Resolve(right, results)

	ok, err := Compare(lv, op, rv)
	if err != nil {
		return false, "Error evaluating condition: " + err.Error()
	}
	return ok, fmt.Sprintf("%s(%s) %s %s(%s)", left, formatValue(lv), op, right, formatValue(rv))
}
