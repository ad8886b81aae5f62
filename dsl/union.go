package dsl

import (
	"context"
	"errors"

	"github.com/reoring/skema"
)

// UnionSchema tries its variants in declared order; the first variant whose
// full pipeline succeeds wins.
type UnionSchema struct {
	base     *skema.Base
	variants []skema.Schema
}

var _ skema.Schema = (*UnionSchema)(nil)

// NewUnion builds a union over a non-empty variant list.
func NewUnion(reg *skema.Registry, variants []skema.Schema, opts ...Option) (*UnionSchema, error) {
	if len(variants) == 0 {
		return nil, errors.New("dsl: union needs at least one variant")
	}
	for _, v := range variants {
		if v == nil {
			return nil, errors.New("dsl: union variant is nil")
		}
	}
	base, err := skema.NewBase(reg, skema.DataUnion, configOf(opts))
	if err != nil {
		return nil, err
	}
	u := &UnionSchema{variants: append([]skema.Schema(nil), variants...)}
	u.base = base.Bind(u)
	return u, nil
}

func (u *UnionSchema) with(base *skema.Base) *UnionSchema {
	n := &UnionSchema{variants: u.variants}
	n.base = base.Bind(n)
	return n
}

func (u *UnionSchema) DataType() skema.DataType  { return u.base.DataType() }
func (u *UnionSchema) Config() skema.Config      { return u.base.Config() }
func (u *UnionSchema) Registry() *skema.Registry { return u.base.Registry() }
func (u *UnionSchema) Label() string             { return u.base.Label() }
func (u *UnionSchema) Variants() []skema.Schema  { return append([]skema.Schema(nil), u.variants...) }
func (u *UnionSchema) Optional() skema.Schema    { return u.with(u.base.WithOptional()) }
func (u *UnionSchema) Nullable() skema.Schema    { return u.with(u.base.WithNullable()) }

// Prepare runs only the union's own preparations; each variant prepares the
// value again as part of its attempt.
func (u *UnionSchema) Prepare(c skema.Context) (any, error) { return u.base.Prepare(c) }

// Validate runs each variant's complete pipeline sequentially. On success the
// winner's output (already transformed by the variant) is checked against the
// union's own rules. When every variant fails, the union's rule issues come
// first, followed by each variant's issues in variant order.
func (u *UnionSchema) Validate(c skema.Context, v any) (any, error) {
	if out, ok := u.base.ShortCircuit(v); ok {
		return out, nil
	}
	if err := u.base.CheckIdentity(c, v); err != nil {
		return nil, err
	}
	var collected skema.Issues
	for _, variant := range u.variants {
		out, err := skema.Run(c.WithValue(v), variant)
		if err == nil {
			if err := u.base.CheckRules(c.WithValue(out), out); err != nil {
				return nil, err
			}
			return out, nil
		}
		iss, uerr := childResult(err, c.Path)
		if uerr != nil {
			return nil, uerr
		}
		collected = append(collected, iss...)
	}
	if len(collected) == 0 {
		collected = skema.Issues{structural(u.base, c, v, skema.CodeNoUnionMatch, nil)}
	}
	if err := u.base.CheckRules(c, v); err != nil {
		ruleIss, uerr := skema.Classify(err)
		if uerr != nil {
			return nil, uerr
		}
		collected = append(ruleIss, collected...)
	}
	return nil, collected
}

// Transform applies union-level transformations on top of the winner's output.
func (u *UnionSchema) Transform(c skema.Context, v any) (any, error) {
	return u.base.Transform(c, v)
}

// Parse runs the pipeline with u as the root schema.
func (u *UnionSchema) Parse(ctx context.Context, data any, opts ...skema.ParseOption) (any, error) {
	return skema.Parse(ctx, u, data, opts...)
}

// SafeParse runs the pipeline with u as the root schema.
func (u *UnionSchema) SafeParse(ctx context.Context, data any, opts ...skema.ParseOption) skema.Result {
	return skema.SafeParse(ctx, u, data, opts...)
}
