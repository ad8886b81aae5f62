package dsl

import (
	"context"
	"fmt"
	"maps"
	"sort"

	"github.com/reoring/skema"
)

// ObjectSchema validates map[string]any values property by property.
type ObjectSchema struct {
	base   *skema.Base
	fields []Field
	index  map[string]int
}

var _ skema.Schema = (*ObjectSchema)(nil)

// NewObject builds an object schema. Property names must be unique.
func NewObject(reg *skema.Registry, shape []Field, opts ...Option) (*ObjectSchema, error) {
	base, err := skema.NewBase(reg, skema.DataObject, configOf(opts))
	if err != nil {
		return nil, err
	}
	return newObject(base, shape)
}

func newObject(base *skema.Base, shape []Field) (*ObjectSchema, error) {
	o := &ObjectSchema{fields: make([]Field, 0, len(shape)), index: make(map[string]int, len(shape))}
	for _, f := range shape {
		if f.Schema == nil {
			return nil, fmt.Errorf("dsl: property %q has no schema", f.Name)
		}
		if _, dup := o.index[f.Name]; dup {
			return nil, fmt.Errorf("dsl: duplicate property %q", f.Name)
		}
		o.index[f.Name] = len(o.fields)
		o.fields = append(o.fields, f)
	}
	o.base = base.Bind(o)
	return o, nil
}

func (o *ObjectSchema) with(base *skema.Base) *ObjectSchema {
	n := &ObjectSchema{fields: o.fields, index: o.index}
	n.base = base.Bind(n)
	return n
}

func (o *ObjectSchema) DataType() skema.DataType   { return o.base.DataType() }
func (o *ObjectSchema) Config() skema.Config       { return o.base.Config() }
func (o *ObjectSchema) Registry() *skema.Registry  { return o.base.Registry() }
func (o *ObjectSchema) Label() string              { return o.base.Label() }
func (o *ObjectSchema) Unknown() skema.UnknownPolicy { return o.base.Unknown() }
func (o *ObjectSchema) Optional() skema.Schema     { return o.with(o.base.WithOptional()) }
func (o *ObjectSchema) Nullable() skema.Schema     { return o.with(o.base.WithNullable()) }

// Fields returns the declared properties in declaration order.
func (o *ObjectSchema) Fields() []Field { return append([]Field(nil), o.fields...) }

// Property returns the schema declared for name.
func (o *ObjectSchema) Property(name string) (skema.Schema, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.fields[i].Schema, true
}

// Prepare runs the object's own preparations, then prepares every declared
// property present on the input. Undeclared keys are left untouched and
// non-object values pass through.
func (o *ObjectSchema) Prepare(c skema.Context) (any, error) {
	v, err := o.base.Prepare(c)
	if err != nil {
		return nil, err
	}
	m, ok := skema.AsMap(v)
	if !ok {
		return v, nil
	}
	out := maps.Clone(m)
	for _, f := range o.fields {
		val, present := m[f.Name]
		if !present {
			continue
		}
		pv, err := f.Schema.Prepare(c.Child(skema.Key(f.Name), val))
		if err != nil {
			return nil, err
		}
		out[f.Name] = pv
	}
	return out, nil
}

// Validate checks object-ness, validates declared properties concurrently,
// applies the unknown-key policy and finally runs object-level rules against
// the assembled value.
//
// Object-level rules run only when no property or unknown-key issue was
// collected, so cross-field checks report on an otherwise valid object.
func (o *ObjectSchema) Validate(c skema.Context, v any) (any, error) {
	if out, ok := o.base.ShortCircuit(v); ok {
		return out, nil
	}
	if err := o.base.CheckIdentity(c, v); err != nil {
		return nil, err
	}
	m, _ := skema.AsMap(v)

	n := len(o.fields)
	outs := make([]any, n)
	present := make([]bool, n)
	slots := make([]skema.Issues, n)
	err := o.base.Each(c, n, func(c skema.Context, i int) error {
		f := o.fields[i]
		val, ok := m[f.Name]
		cc := c.Child(skema.Key(f.Name), val)
		if !ok {
			if !isOptional(f.Schema) {
				slots[i] = skema.Issues{structural(o.base, cc, nil, skema.CodeRequired, nil)}
			}
			return nil
		}
		out, err := f.Schema.Validate(cc, val)
		if err != nil {
			iss, uerr := childResult(err, cc.Path)
			if uerr != nil {
				return uerr
			}
			slots[i] = iss
			return nil
		}
		outs[i], present[i] = out, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	iss := flatten(slots)

	result := make(map[string]any, len(m))
	for i, f := range o.fields {
		if present[i] {
			result[f.Name] = outs[i]
		}
	}
	for _, k := range o.unknownKeys(m) {
		switch o.base.Unknown() {
		case skema.UnknownStrict:
			cc := c.Child(skema.Key(k), m[k])
			iss = append(iss, structural(o.base, cc, m[k], skema.CodeUnknownKey, map[string]string{"key": k}, "key", k))
		case skema.UnknownStrip:
		default:
			result[k] = m[k]
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if err := o.base.CheckRules(c.WithValue(result), result); err != nil {
		return nil, err
	}
	return result, nil
}

// unknownKeys returns the undeclared keys of m in ascending order.
func (o *ObjectSchema) unknownKeys(m map[string]any) []string {
	var out []string
	for k := range m {
		if _, known := o.index[k]; !known {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Transform transforms every declared property, then runs the object's own
// transformations. Passthrough keys are copied unmodified.
func (o *ObjectSchema) Transform(c skema.Context, v any) (any, error) {
	if _, ok := o.base.ShortCircuit(v); ok {
		return v, nil
	}
	m, ok := skema.AsMap(v)
	if !ok {
		return o.base.Transform(c, v)
	}
	out := maps.Clone(m)
	for _, f := range o.fields {
		val, present := m[f.Name]
		if !present {
			continue
		}
		tv, err := f.Schema.Transform(c.Child(skema.Key(f.Name), val), val)
		if err != nil {
			return nil, err
		}
		out[f.Name] = tv
	}
	return o.base.Transform(c.WithValue(out), out)
}

// Parse runs the pipeline with o as the root schema.
func (o *ObjectSchema) Parse(ctx context.Context, data any, opts ...skema.ParseOption) (any, error) {
	return skema.Parse(ctx, o, data, opts...)
}

// SafeParse runs the pipeline with o as the root schema.
func (o *ObjectSchema) SafeParse(ctx context.Context, data any, opts ...skema.ParseOption) skema.Result {
	return skema.SafeParse(ctx, o, data, opts...)
}
