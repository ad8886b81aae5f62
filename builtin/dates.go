package builtin

import (
	"fmt"
	"strings"
	"time"

	"github.com/reoring/skema"
)

// parseRFC3339 accepts RFC3339Nano (trailing zeros optional) and bare dates.
func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		if t3, err3 := time.Parse(time.DateOnly, s); err3 == nil {
			return t3, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// toTime converts a time value, RFC 3339 string or Unix milliseconds.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		tt, err := parseRFC3339(strings.TrimSpace(t))
		return tt, err == nil
	}
	if ms, ok := numberValue(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func dateRule(cmp func(got, bound time.Time) bool) skema.ValidatorFunc {
	return func(_ skema.Context, v any, args any, _ skema.Schema) (bool, error) {
		got, ok := v.(time.Time)
		if !ok {
			return false, nil
		}
		bound, ok := toTime(args)
		if !ok {
			return false, fmt.Errorf("builtin: date bound required, got %T", args)
		}
		return cmp(got, bound), nil
	}
}

func dateMessage(format string) skema.MessageFunc {
	return func(m skema.MessageContext) string {
		bound, ok := toTime(m.Args)
		if !ok {
			return fmt.Sprintf(format, m.Label, m.Args)
		}
		return fmt.Sprintf(format, m.Label, bound.UTC().Format(time.RFC3339Nano))
	}
}

func coerceDate(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
	if _, ok := v.(time.Time); ok {
		return v, nil
	}
	switch v.(type) {
	case string, *time.Time:
		if t, ok := toTime(v); ok {
			return t, nil
		}
		return v, nil
	}
	if isNumber(v) {
		t, _ := toTime(v)
		return t, nil
	}
	return v, nil
}

func datePlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataDate,
		Prepare: map[string]skema.PrepareFunc{
			"coerce": coerceDate,
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
					t, ok := v.(time.Time)
					return ok && !t.IsZero(), nil
				},
				Message: skema.Sprintf("%s must be a valid date."),
			},
			skema.RuleCustom: customMessage,
			"min": {
				Validate: dateRule(func(got, bound time.Time) bool { return !got.Before(bound) }),
				Message:  dateMessage("%s must be on or after %s."),
			},
			"max": {
				Validate: dateRule(func(got, bound time.Time) bool { return !got.After(bound) }),
				Message:  dateMessage("%s must be on or before %s."),
			},
		},
		Transform: map[string]skema.TransformFunc{
			"utc": func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
				if t, ok := v.(time.Time); ok {
					return t.UTC(), nil
				}
				return v, nil
			},
			// toISOString formats in UTC with RFC3339Nano (Go trims trailing zeros).
			"toISOString": func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
				if t, ok := v.(time.Time); ok {
					return t.UTC().Format(time.RFC3339Nano), nil
				}
				return v, nil
			},
		},
	}
}
