package domain

import (
	"encoding/json"
	"math"
)

// Values holds the named values a step computed, including the inputs that
// fed the computation. Terminal rule conditions read them by name.
type Values map[string]any

// MarshalJSON encodes non-finite floats as "Infinity", "-Infinity" or "NaN".
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = finite(val)
	}
	return json.Marshal(out)
}

func finite(v any) any {
	switch t := v.(type) {
	case float64:
		return finiteFloat(t)
	case float32:
		return finiteFloat(float64(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = finite(val)
		}
		return out
	case Values:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = finite(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = finite(val)
		}
		return out
	}
	return v
}

func finiteFloat(f float64) any {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	return f
}
