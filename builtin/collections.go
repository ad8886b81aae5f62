package builtin

import (
	"github.com/goccy/go-json"

	"github.com/reoring/skema"
)

func sliceLength(v any) (float64, bool) {
	items, ok := skema.AsSlice(v)
	if !ok {
		return 0, false
	}
	return float64(len(items)), true
}

func mapLength(v any) (float64, bool) {
	m, ok := skema.AsMap(v)
	if !ok {
		return 0, false
	}
	return float64(len(m)), true
}

func setLength(v any) (float64, bool) {
	s, ok := v.(*skema.Set)
	if !ok || s == nil {
		return 0, false
	}
	return float64(s.Len()), true
}

func isMap(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
	_, ok := skema.AsMap(v)
	return ok, nil
}

func isSlice(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
	_, ok := skema.AsSlice(v)
	return ok, nil
}

// parseJSONObject decodes a JSON object text into map[string]any.
func parseJSONObject(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return v, nil
	}
	return out, nil
}

func parseJSONArray(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	var out []any
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return v, nil
	}
	return out, nil
}

func fromStruct(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
	if _, ok := v.(map[string]any); ok {
		return v, nil
	}
	if m, ok := skema.StructToMap(v); ok {
		return m, nil
	}
	return v, nil
}

func objectPlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataObject,
		Prepare: map[string]skema.PrepareFunc{
			"parseJSON":  parseJSONObject,
			"fromStruct": fromStruct,
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {Validate: isMap, Message: skema.Sprintf("%s must be an object.")},
			skema.RuleCustom:   customMessage,
			"minKeys": {
				Validate: numberRule(mapLength, atLeast),
				Message:  argMessage("%s must have at least %v keys."),
			},
			"maxKeys": {
				Validate: numberRule(mapLength, atMost),
				Message:  argMessage("%s must have at most %v keys."),
			},
			"jsonSchema": jsonSchemaRule,
		},
	}
}

func arrayPlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataArray,
		Prepare: map[string]skema.PrepareFunc{
			"parseJSON": parseJSONArray,
			"fromSet": func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
				if s, ok := v.(*skema.Set); ok && s != nil {
					return s.Items(), nil
				}
				return v, nil
			},
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {Validate: isSlice, Message: skema.Sprintf("%s must be an array.")},
			skema.RuleCustom:   customMessage,
			"minItems": {
				Validate: numberRule(sliceLength, atLeast),
				Message:  argMessage("%s must contain at least %v items."),
			},
			"maxItems": {
				Validate: numberRule(sliceLength, atMost),
				Message:  argMessage("%s must contain at most %v items."),
			},
			"length": {
				Validate: numberRule(sliceLength, equal),
				Message:  argMessage("%s must contain exactly %v items."),
			},
			"nonEmpty": {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
					n, ok := sliceLength(v)
					return ok && n > 0, nil
				},
				Message: skema.Sprintf("%s must not be empty."),
			},
			"unique": {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
					items, ok := skema.AsSlice(v)
					if !ok {
						return false, nil
					}
					seen := skema.NewSet()
					for _, it := range items {
						if !seen.Add(it) {
							return false, nil
						}
					}
					return true, nil
				},
				Message: skema.Sprintf("%s must not contain duplicate items."),
			},
		},
	}
}

func setPlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataSet,
		Prepare: map[string]skema.PrepareFunc{
			"fromArray": func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
				if items, ok := skema.AsSlice(v); ok {
					return skema.NewSet(items...), nil
				}
				return v, nil
			},
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
					s, ok := v.(*skema.Set)
					return ok && s != nil, nil
				},
				Message: skema.Sprintf("%s must be a set."),
			},
			skema.RuleCustom: customMessage,
			"minSize": {
				Validate: numberRule(setLength, atLeast),
				Message:  argMessage("%s must contain at least %v items."),
			},
			"maxSize": {
				Validate: numberRule(setLength, atMost),
				Message:  argMessage("%s must contain at most %v items."),
			},
		},
		Transform: map[string]skema.TransformFunc{
			"toArray": func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
				if s, ok := v.(*skema.Set); ok && s != nil {
					return s.Items(), nil
				}
				return v, nil
			},
		},
	}
}

func mapPlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataMap,
		Prepare: map[string]skema.PrepareFunc{
			"parseJSON": parseJSONObject,
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {Validate: isMap, Message: skema.Sprintf("%s must be a map.")},
			skema.RuleCustom:   customMessage,
			"minEntries": {
				Validate: numberRule(mapLength, atLeast),
				Message:  argMessage("%s must contain at least %v entries."),
			},
			"maxEntries": {
				Validate: numberRule(mapLength, atMost),
				Message:  argMessage("%s must contain at most %v entries."),
			},
		},
	}
}

func tuplePlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataTuple,
		Prepare: map[string]skema.PrepareFunc{
			"parseJSON": parseJSONArray,
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {Validate: isSlice, Message: skema.Sprintf("%s must be a tuple.")},
			skema.RuleCustom:   customMessage,
		},
	}
}

func anyPlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataAny,
		Prepare: map[string]skema.PrepareFunc{
			"parseJSON": parseJSONString,
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {Validate: func(skema.Context, any, any, skema.Schema) (bool, error) { return true, nil }},
			skema.RuleCustom:   customMessage,
			"jsonSchema":       jsonSchemaRule,
		},
	}
}
