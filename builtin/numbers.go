package builtin

import (
	"math"
	"strconv"
	"strings"

	"github.com/reoring/skema"
)

func numberValue(v any) (float64, bool) {
	if !isNumber(v) {
		return 0, false
	}
	return toFloat(v)
}

func numberPredicate(pred func(f float64) bool) skema.ValidatorFunc {
	return func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
		f, ok := numberValue(v)
		return ok && pred(f), nil
	}
}

// coerceNumber converts numeric strings and booleans; other values are left
// for the identity check to reject.
func coerceNumber(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return v, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return v, nil
		}
		return f, nil
	case bool:
		if t {
			return float64(1), nil
		}
		return float64(0), nil
	}
	return v, nil
}

func roundStep(fn func(float64) float64) skema.TransformFunc {
	return func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
		f, ok := numberValue(v)
		if !ok {
			return v, nil
		}
		return fn(f), nil
	}
}

func numberPlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataNumber,
		Prepare: map[string]skema.PrepareFunc{
			"coerce": coerceNumber,
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) { return isNumber(v), nil },
				Message:  skema.Sprintf("%s must be a number."),
			},
			skema.RuleCustom: customMessage,
			"min": {
				Validate: numberRule(numberValue, atLeast),
				Message:  argMessage("%s must be greater than or equal to %v."),
			},
			"max": {
				Validate: numberRule(numberValue, atMost),
				Message:  argMessage("%s must be less than or equal to %v."),
			},
			"gt": {
				Validate: numberRule(numberValue, func(got, want float64) bool { return got > want }),
				Message:  argMessage("%s must be greater than %v."),
			},
			"lt": {
				Validate: numberRule(numberValue, func(got, want float64) bool { return got < want }),
				Message:  argMessage("%s must be less than %v."),
			},
			"integer": {
				Validate: numberPredicate(func(f float64) bool { return !math.IsInf(f, 0) && f == math.Trunc(f) }),
				Message:  skema.Sprintf("%s must be an integer."),
			},
			"positive": {
				Validate: numberPredicate(func(f float64) bool { return f > 0 }),
				Message:  skema.Sprintf("%s must be positive."),
			},
			"negative": {
				Validate: numberPredicate(func(f float64) bool { return f < 0 }),
				Message:  skema.Sprintf("%s must be negative."),
			},
			"finite": {
				Validate: numberPredicate(func(f float64) bool { return !math.IsInf(f, 0) }),
				Message:  skema.Sprintf("%s must be finite."),
			},
			"multipleOf": {
				Validate: numberRule(numberValue, func(got, want float64) bool {
					if want == 0 {
						return false
					}
					r := math.Mod(got, want)
					return math.Abs(r) < 1e-9 || math.Abs(math.Abs(r)-math.Abs(want)) < 1e-9
				}),
				Message: argMessage("%s must be a multiple of %v."),
			},
		},
		Transform: map[string]skema.TransformFunc{
			"round": roundStep(math.Round),
			"floor": roundStep(math.Floor),
			"ceil":  roundStep(math.Ceil),
			"abs":   roundStep(math.Abs),
		},
	}
}

// coerceBoolean accepts the strconv.ParseBool spellings, "yes"/"no", and numbers.
func coerceBoolean(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
	switch t := v.(type) {
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch s {
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
		return v, nil
	}
	if f, ok := numberValue(v); ok {
		return f != 0, nil
	}
	return v, nil
}

func booleanPlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataBoolean,
		Prepare: map[string]skema.PrepareFunc{
			"coerce": coerceBoolean,
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
					_, ok := v.(bool)
					return ok, nil
				},
				Message: skema.Sprintf("%s must be a boolean."),
			},
			skema.RuleCustom: customMessage,
			"true": {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) { return v == true, nil },
				Message:  skema.Sprintf("%s must be true."),
			},
			"false": {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) { return v == false, nil },
				Message:  skema.Sprintf("%s must be false."),
			},
		},
		Transform: map[string]skema.TransformFunc{
			"not": func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
				if b, ok := v.(bool); ok {
					return !b, nil
				}
				return v, nil
			},
		},
	}
}
