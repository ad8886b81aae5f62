package dsl

import (
	"context"
	"errors"

	"github.com/reoring/skema"
)

// SetSchema mirrors ArraySchema over *skema.Set. Members that validate or
// transform to the same value collapse into one.
type SetSchema struct {
	base *skema.Base
	item skema.Schema
}

var _ skema.Schema = (*SetSchema)(nil)

// NewSet builds a set schema. Use Prepare("fromArray") to accept slices.
func NewSet(reg *skema.Registry, item skema.Schema, opts ...Option) (*SetSchema, error) {
	if item == nil {
		return nil, errors.New("dsl: set item schema is nil")
	}
	base, err := skema.NewBase(reg, skema.DataSet, configOf(opts))
	if err != nil {
		return nil, err
	}
	s := &SetSchema{item: item}
	s.base = base.Bind(s)
	return s, nil
}

func (s *SetSchema) with(base *skema.Base) *SetSchema {
	n := &SetSchema{item: s.item}
	n.base = base.Bind(n)
	return n
}

func (s *SetSchema) DataType() skema.DataType  { return s.base.DataType() }
func (s *SetSchema) Config() skema.Config      { return s.base.Config() }
func (s *SetSchema) Registry() *skema.Registry { return s.base.Registry() }
func (s *SetSchema) Label() string             { return s.base.Label() }
func (s *SetSchema) Item() skema.Schema        { return s.item }
func (s *SetSchema) Optional() skema.Schema    { return s.with(s.base.WithOptional()) }
func (s *SetSchema) Nullable() skema.Schema    { return s.with(s.base.WithNullable()) }

func (s *SetSchema) Prepare(c skema.Context) (any, error) {
	v, err := s.base.Prepare(c)
	if err != nil {
		return nil, err
	}
	set, ok := v.(*skema.Set)
	if !ok || set == nil {
		return v, nil
	}
	items, err := mapChildren(c, set.Items(), func(c skema.Context, _ any) (any, error) { return s.item.Prepare(c) })
	if err != nil {
		return nil, err
	}
	return skema.NewSet(items...), nil
}

// Validate returns an empty set for an absent optional input.
func (s *SetSchema) Validate(c skema.Context, v any) (any, error) {
	if s.base.IsOptional() && skema.IsUndefined(v) {
		return skema.NewSet(), nil
	}
	if out, ok := s.base.ShortCircuit(v); ok {
		return out, nil
	}
	if err := s.base.CheckIdentity(c, v); err != nil {
		return nil, err
	}
	items := v.(*skema.Set).Items()

	var iss skema.Issues
	if err := s.base.CheckRules(c, v); err != nil {
		ruleIss, uerr := skema.Classify(err)
		if uerr != nil {
			return nil, uerr
		}
		iss = ruleIss
	}
	outs, elemIss, err := validateChildren(s.base, c, len(items),
		skema.Index,
		func(i int) any { return items[i] },
		func(int) skema.Schema { return s.item })
	if err != nil {
		return nil, err
	}
	iss = append(iss, elemIss...)
	if len(iss) > 0 {
		return nil, iss
	}
	return skema.NewSet(outs...), nil
}

func (s *SetSchema) Transform(c skema.Context, v any) (any, error) {
	if _, ok := s.base.ShortCircuit(v); ok {
		return v, nil
	}
	set, ok := v.(*skema.Set)
	if !ok || set == nil {
		return s.base.Transform(c, v)
	}
	items, err := mapChildren(c, set.Items(), func(c skema.Context, it any) (any, error) { return s.item.Transform(c, it) })
	if err != nil {
		return nil, err
	}
	out := skema.NewSet(items...)
	return s.base.Transform(c.WithValue(out), out)
}

// Parse runs the pipeline with s as the root schema.
func (s *SetSchema) Parse(ctx context.Context, data any, opts ...skema.ParseOption) (any, error) {
	return skema.Parse(ctx, s, data, opts...)
}

// SafeParse runs the pipeline with s as the root schema.
func (s *SetSchema) SafeParse(ctx context.Context, data any, opts ...skema.ParseOption) skema.Result {
	return skema.SafeParse(ctx, s, data, opts...)
}
