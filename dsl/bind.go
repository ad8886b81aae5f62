package dsl

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/reoring/skema"
)

// ParseInto parses data with s and decodes the output into T through its JSON
// form, so struct fields bind by their json tags.
func ParseInto[T any](ctx context.Context, s skema.Schema, data any, opts ...skema.ParseOption) (T, error) {
	var zero T
	out, err := skema.Parse(ctx, s, data, opts...)
	if err != nil {
		return zero, err
	}
	return Decode[T](out)
}

// Decode converts a parsed value into T. *skema.Set values decode as arrays.
func Decode[T any](v any) (T, error) {
	var out T
	if t, ok := v.(T); ok {
		return t, nil
	}
	b, err := json.Marshal(jsonable(v))
	if err != nil {
		return out, fmt.Errorf("dsl: encode parsed value: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("dsl: decode into %T: %w", out, err)
	}
	return out, nil
}

// jsonable replaces sets with their items and drops Undefined entries.
func jsonable(v any) any {
	switch t := v.(type) {
	case *skema.Set:
		return jsonable(t.Items())
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if skema.IsUndefined(e) {
				continue
			}
			out[k] = jsonable(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			if skema.IsUndefined(e) {
				e = nil
			}
			out[i] = jsonable(e)
		}
		return out
	}
	if skema.IsUndefined(v) {
		return nil
	}
	return v
}
