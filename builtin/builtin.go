// Package builtin provides the plugin tables for every data type shipped with
// skema: identity checks, named validators, preparations and transformations.
package builtin

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/reoring/skema"
)

// Plugins returns the built-in plugin descriptors in registration order.
// Callers may append their own plugins; later entries for the same data type
// augment these tables.
func Plugins() []skema.Plugin {
	return []skema.Plugin{
		stringPlugin(),
		numberPlugin(),
		booleanPlugin(),
		datePlugin(),
		objectPlugin(),
		arrayPlugin(),
		setPlugin(),
		mapPlugin(),
		tuplePlugin(),
		anyPlugin(),
		passPlugin(skema.DataUnion),
		passPlugin(skema.DataSwitch),
		passPlugin(skema.DataLazy),
	}
}

// Registry builds a registry over Plugins plus any extra plugins.
func Registry(opts ...skema.Option) *skema.Registry {
	return skema.NewRegistry(Plugins(), opts...)
}

// With builds a registry over Plugins followed by extra.
func With(extra []skema.Plugin, opts ...skema.Option) *skema.Registry {
	return skema.NewRegistry(append(Plugins(), extra...), opts...)
}

// customMessage is the registry default for custom validators.
var customMessage = skema.Rule{Message: skema.Sprintf("%s is invalid.")}

// passPlugin covers composite types whose identity is decided by their members.
func passPlugin(dt skema.DataType) skema.Plugin {
	return skema.Plugin{
		DataType: dt,
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {Validate: func(skema.Context, any, any, skema.Schema) (bool, error) { return true, nil }},
			skema.RuleCustom:   customMessage,
		},
	}
}

// ---- argument helpers ----

// toFloat converts any numeric kind (including YAML/JSON decoded ints) to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// isNumber reports whether v is a Go numeric value other than NaN.
func isNumber(v any) bool {
	switch v.(type) {
	case string, nil, bool:
		return false
	}
	f, ok := toFloat(v)
	return ok && !math.IsNaN(f)
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// toStrings accepts a []string, []any or a single value.
func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case nil:
		return nil
	}
	if items, ok := skema.AsSlice(v); ok {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = toString(it)
		}
		return out
	}
	return []string{toString(v)}
}

// numberRule builds a validator comparing a numeric measure of v with the
// numeric argument.
func numberRule(measure func(v any) (float64, bool), cmp func(got, want float64) bool) skema.ValidatorFunc {
	return func(_ skema.Context, v any, args any, _ skema.Schema) (bool, error) {
		got, ok := measure(v)
		if !ok {
			return false, nil
		}
		want, ok := toFloat(args)
		if !ok {
			return false, fmt.Errorf("builtin: numeric argument required, got %T", args)
		}
		return cmp(got, want), nil
	}
}

func atLeast(got, want float64) bool { return got >= want }
func atMost(got, want float64) bool  { return got <= want }
func equal(got, want float64) bool   { return got == want }

// argMessage formats a message with the label and the rule argument.
func argMessage(format string) skema.MessageFunc {
	return func(m skema.MessageContext) string { return fmt.Sprintf(format, m.Label, m.Args) }
}
