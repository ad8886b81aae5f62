package dsl

import (
	"context"
	"errors"

	"github.com/reoring/skema"
)

// ArraySchema validates every element of a slice against one item schema.
type ArraySchema struct {
	base *skema.Base
	item skema.Schema
}

var _ skema.Schema = (*ArraySchema)(nil)

// NewArray builds an array schema.
func NewArray(reg *skema.Registry, item skema.Schema, opts ...Option) (*ArraySchema, error) {
	if item == nil {
		return nil, errors.New("dsl: array item schema is nil")
	}
	base, err := skema.NewBase(reg, skema.DataArray, configOf(opts))
	if err != nil {
		return nil, err
	}
	a := &ArraySchema{item: item}
	a.base = base.Bind(a)
	return a, nil
}

func (a *ArraySchema) with(base *skema.Base) *ArraySchema {
	n := &ArraySchema{item: a.item}
	n.base = base.Bind(n)
	return n
}

func (a *ArraySchema) DataType() skema.DataType  { return a.base.DataType() }
func (a *ArraySchema) Config() skema.Config      { return a.base.Config() }
func (a *ArraySchema) Registry() *skema.Registry { return a.base.Registry() }
func (a *ArraySchema) Label() string             { return a.base.Label() }
func (a *ArraySchema) Item() skema.Schema        { return a.item }
func (a *ArraySchema) Optional() skema.Schema    { return a.with(a.base.WithOptional()) }
func (a *ArraySchema) Nullable() skema.Schema    { return a.with(a.base.WithNullable()) }

// Prepare runs the array's own preparations, then prepares each element in order.
func (a *ArraySchema) Prepare(c skema.Context) (any, error) {
	v, err := a.base.Prepare(c)
	if err != nil {
		return nil, err
	}
	items, ok := skema.AsSlice(v)
	if !ok {
		return v, nil
	}
	return mapChildren(c, items, func(c skema.Context, _ any) (any, error) { return a.item.Prepare(c) })
}

// Validate returns an empty array (not Undefined) for an absent optional
// input. Array-level rules report before element issues; elements are
// validated concurrently and reassembled by index.
func (a *ArraySchema) Validate(c skema.Context, v any) (any, error) {
	if a.base.IsOptional() && skema.IsUndefined(v) {
		return []any{}, nil
	}
	if out, ok := a.base.ShortCircuit(v); ok {
		return out, nil
	}
	if err := a.base.CheckIdentity(c, v); err != nil {
		return nil, err
	}
	items, _ := skema.AsSlice(v)

	var iss skema.Issues
	if err := a.base.CheckRules(c, v); err != nil {
		ruleIss, uerr := skema.Classify(err)
		if uerr != nil {
			return nil, uerr
		}
		iss = ruleIss
	}
	outs, elemIss, err := validateChildren(a.base, c, len(items),
		skema.Index,
		func(i int) any { return items[i] },
		func(int) skema.Schema { return a.item })
	if err != nil {
		return nil, err
	}
	iss = append(iss, elemIss...)
	if len(iss) > 0 {
		return nil, iss
	}
	return outs, nil
}

// Transform transforms each element in order, then runs the array's own
// transformations.
func (a *ArraySchema) Transform(c skema.Context, v any) (any, error) {
	if _, ok := a.base.ShortCircuit(v); ok {
		return v, nil
	}
	items, ok := skema.AsSlice(v)
	if !ok {
		return a.base.Transform(c, v)
	}
	out, err := mapChildren(c, items, func(c skema.Context, it any) (any, error) { return a.item.Transform(c, it) })
	if err != nil {
		return nil, err
	}
	return a.base.Transform(c.WithValue(out), out)
}

// Parse runs the pipeline with a as the root schema.
func (a *ArraySchema) Parse(ctx context.Context, data any, opts ...skema.ParseOption) (any, error) {
	return skema.Parse(ctx, a, data, opts...)
}

// SafeParse runs the pipeline with a as the root schema.
func (a *ArraySchema) SafeParse(ctx context.Context, data any, opts ...skema.ParseOption) skema.Result {
	return skema.SafeParse(ctx, a, data, opts...)
}
