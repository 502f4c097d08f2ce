package condition

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Compare applies op to l and r. Numbers compare numerically, strings
// lexically. "==" falls back to deep equality for any other pair; ordering
// across types or against nil is an error.
func Compare(l any, op string, r any) (bool, error) {
	lf, lnum := toFloat(l)
	rf, rnum := toFloat(r)
	if lnum && rnum {
		return compareOrdered(lf, op, rf)
	}

	ls, lstr := l.(string)
	rs, rstr := r.(string)
	if lstr && rstr {
		return compareOrdered(ls, op, rs)
	}

	if op == "==" {
		return reflect.DeepEqual(l, r), nil
	}
	return false, fmt.Errorf("'%s' not supported between %s and %s", op, typeName(l), typeName(r))
}

func compareOrdered[T float64 | string](l T, op string, r T) (bool, error) {
	switch op {
	case "<=":
		return l <= r, nil
	case ">=":
		return l >= r, nil
	case "==":
		return l == r, nil
	case "<":
		return l < r, nil
	case ">":
		return l > r, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		switch {
		case math.IsInf(t, 1):
			return "inf"
		case math.IsInf(t, -1):
			return "-inf"
		case math.IsNaN(t):
			return "nan"
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	}
	return fmt.Sprint(v)
}
