package steps

import (
	"fmt"
	"maps"
	"math"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// mergeParams overlays params on defaults. Keys present in params win;
// nested values are replaced, not merged.
func mergeParams(defaults, params map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(params))
	maps.Copy(merged, defaults)
	maps.Copy(merged, params)
	return merged
}

// decodeParams decodes a merged parameter map into out. Input is weakly
// typed: JSON floats decode into ints and numeric strings into numbers.
func decodeParams(stepType string, in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("%s: invalid params: %w", stepType, err)
	}
	return nil
}

func defaultCountryCaps() map[string]any {
	return map[string]any{
		"ES":    30000,
		"FR":    25000,
		"DE":    35000,
		"OTHER": 20000,
	}
}

// capFor returns caps[country], falling back to caps["OTHER"]. Only the
// selected entry has to be numeric.
func capFor(caps map[string]any, country string) (float64, error) {
	key := country
	raw, ok := caps[key]
	if !ok {
		key = "OTHER"
		if raw, ok = caps[key]; !ok {
			return 0, fmt.Errorf("no cap for country %q and no OTHER fallback", country)
		}
	}
	var c float64
	if err := mapstructure.WeakDecode(raw, &c); err != nil {
		return 0, fmt.Errorf("cap %q: %w", key, err)
	}
	return c, nil
}

func round(v float64, places int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// number renders a float without a trailing fraction when it is integral.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// numericValue keeps integral caps and thresholds as integers in computed values.
func numericValue(v float64) any {
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return int64(v)
	}
	return v
}

func percent(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf%"
	case math.IsNaN(v):
		return "nan%"
	}
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}

func verdict(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
