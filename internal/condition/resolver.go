package condition

import (
	"regexp"
	"strconv"
	"strings"
)

var numericLiteral = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)$`)

// Resolve turns an operand into a value.
//
// Numeric literals become int64, or float64 when they contain a dot.
// "<step>.<field>" reads the step's computed value (nil when the field is
// absent) and "<step>.params.<name>" reads computed value <name>, because
// steps echo their effective params there. Anything else, including a
// reference to a step that did not run, resolves to the trimmed token.
func Resolve(token string, results Results) any {
	token = strings.TrimSpace(token)

	if numericLiteral.MatchString(token) {
		if strings.Contains(token, ".") {
			if f, err := strconv.ParseFloat(token, 64); err == nil {
				return f
			}
		} else if i, err := strconv.ParseInt(token, 10, 64); err == nil {
			return i
		} else if f, err := strconv.ParseFloat(token, 64); err == nil {
			return f
		}
	}

	if strings.Contains(token, ".") {
		parts := strings.Split(token, ".")
		if res, ok := results[parts[0]]; ok && res != nil {
			switch {
			case len(parts) == 2:
				return res.ComputedValues[parts[1]]
			case len(parts) == 3 && parts[1] == "params":
				return res.ComputedValues[parts[2]]
			}
		}
	}

	return token
}
