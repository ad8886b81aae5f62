package dsl

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/reoring/skema"
)

// MapSchema validates a record: every key against an optional key schema and
// every value against the value schema. Entries are visited in key order.
type MapSchema struct {
	base  *skema.Base
	key   skema.Schema
	value skema.Schema
}

var _ skema.Schema = (*MapSchema)(nil)

// NewMap builds a record schema. key may be nil.
func NewMap(reg *skema.Registry, key, value skema.Schema, opts ...Option) (*MapSchema, error) {
	if value == nil {
		return nil, errors.New("dsl: map value schema is nil")
	}
	base, err := skema.NewBase(reg, skema.DataMap, configOf(opts))
	if err != nil {
		return nil, err
	}
	m := &MapSchema{key: key, value: value}
	m.base = base.Bind(m)
	return m, nil
}

func (m *MapSchema) with(base *skema.Base) *MapSchema {
	n := &MapSchema{key: m.key, value: m.value}
	n.base = base.Bind(n)
	return n
}

func (m *MapSchema) DataType() skema.DataType  { return m.base.DataType() }
func (m *MapSchema) Config() skema.Config      { return m.base.Config() }
func (m *MapSchema) Registry() *skema.Registry { return m.base.Registry() }
func (m *MapSchema) Label() string             { return m.base.Label() }
func (m *MapSchema) Key() skema.Schema         { return m.key }
func (m *MapSchema) Value() skema.Schema       { return m.value }
func (m *MapSchema) Optional() skema.Schema    { return m.with(m.base.WithOptional()) }
func (m *MapSchema) Nullable() skema.Schema    { return m.with(m.base.WithNullable()) }

func sortedKeys(src map[string]any) []string {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func keyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// entries applies a key stage and a value stage to every entry in key order.
func (m *MapSchema) entries(c skema.Context, src map[string]any,
	keyStage func(c skema.Context, k string) (any, error),
	valueStage func(c skema.Context, v any) (any, error)) (map[string]any, error) {
	out := make(map[string]any, len(src))
	for _, k := range sortedKeys(src) {
		nk := any(k)
		if m.key != nil {
			var err error
			if nk, err = keyStage(c.Child(skema.Key(k), k), k); err != nil {
				return nil, err
			}
		}
		nv, err := valueStage(c.Child(skema.Key(k), src[k]), src[k])
		if err != nil {
			return nil, err
		}
		out[keyString(nk)] = nv
	}
	return out, nil
}

func (m *MapSchema) Prepare(c skema.Context) (any, error) {
	v, err := m.base.Prepare(c)
	if err != nil {
		return nil, err
	}
	src, ok := skema.AsMap(v)
	if !ok {
		return v, nil
	}
	return m.entries(c, src,
		func(c skema.Context, _ string) (any, error) { return m.key.Prepare(c) },
		func(c skema.Context, _ any) (any, error) { return m.value.Prepare(c) })
}

// Validate checks record-ness and map-level rules, then every key and value
// concurrently. Key issues precede value issues for the same entry.
func (m *MapSchema) Validate(c skema.Context, v any) (any, error) {
	if out, ok := m.base.ShortCircuit(v); ok {
		return out, nil
	}
	if err := m.base.CheckIdentity(c, v); err != nil {
		return nil, err
	}
	src, _ := skema.AsMap(v)

	var iss skema.Issues
	if err := m.base.CheckRules(c, v); err != nil {
		ruleIss, uerr := skema.Classify(err)
		if uerr != nil {
			return nil, uerr
		}
		iss = ruleIss
	}

	keys := sortedKeys(src)
	outKeys := make([]any, len(keys))
	outVals := make([]any, len(keys))
	slots := make([]skema.Issues, len(keys))
	err := m.base.Each(c, len(keys), func(c skema.Context, i int) error {
		k := keys[i]
		outKeys[i] = k
		if m.key != nil {
			kc := c.Child(skema.Key(k), k)
			nk, err := m.key.Validate(kc, k)
			if err != nil {
				kiss, uerr := childResult(err, kc.Path)
				if uerr != nil {
					return uerr
				}
				slots[i] = append(slots[i], kiss...)
			} else {
				outKeys[i] = nk
			}
		}
		vc := c.Child(skema.Key(k), src[k])
		nv, err := m.value.Validate(vc, src[k])
		if err != nil {
			viss, uerr := childResult(err, vc.Path)
			if uerr != nil {
				return uerr
			}
			slots[i] = append(slots[i], viss...)
			return nil
		}
		outVals[i] = nv
		return nil
	})
	if err != nil {
		return nil, err
	}
	iss = append(iss, flatten(slots)...)
	if len(iss) > 0 {
		return nil, iss
	}
	out := make(map[string]any, len(keys))
	for i := range keys {
		out[keyString(outKeys[i])] = outVals[i]
	}
	return out, nil
}

func (m *MapSchema) Transform(c skema.Context, v any) (any, error) {
	if _, ok := m.base.ShortCircuit(v); ok {
		return v, nil
	}
	src, ok := skema.AsMap(v)
	if !ok {
		return m.base.Transform(c, v)
	}
	out, err := m.entries(c, src,
		func(c skema.Context, k string) (any, error) { return m.key.Transform(c, k) },
		func(c skema.Context, v any) (any, error) { return m.value.Transform(c, v) })
	if err != nil {
		return nil, err
	}
	return m.base.Transform(c.WithValue(out), out)
}

// Parse runs the pipeline with m as the root schema.
func (m *MapSchema) Parse(ctx context.Context, data any, opts ...skema.ParseOption) (any, error) {
	return skema.Parse(ctx, m, data, opts...)
}

// SafeParse runs the pipeline with m as the root schema.
func (m *MapSchema) SafeParse(ctx context.Context, data any, opts ...skema.ParseOption) skema.Result {
	return skema.SafeParse(ctx, m, data, opts...)
}
