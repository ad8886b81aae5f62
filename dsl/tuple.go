package dsl

import (
	"context"
	"errors"
	"strconv"

	"github.com/reoring/skema"
)

// TupleSchema validates a fixed-length list whose positions have their own
// schemas. Trailing optional positions may be absent.
type TupleSchema struct {
	base  *skema.Base
	items []skema.Schema
}

var _ skema.Schema = (*TupleSchema)(nil)

// NewTuple builds a tuple schema.
func NewTuple(reg *skema.Registry, items []skema.Schema, opts ...Option) (*TupleSchema, error) {
	for i, it := range items {
		if it == nil {
			return nil, errors.New("dsl: tuple item " + strconv.Itoa(i) + " is nil")
		}
	}
	base, err := skema.NewBase(reg, skema.DataTuple, configOf(opts))
	if err != nil {
		return nil, err
	}
	t := &TupleSchema{items: append([]skema.Schema(nil), items...)}
	t.base = base.Bind(t)
	return t, nil
}

func (t *TupleSchema) with(base *skema.Base) *TupleSchema {
	n := &TupleSchema{items: t.items}
	n.base = base.Bind(n)
	return n
}

func (t *TupleSchema) DataType() skema.DataType  { return t.base.DataType() }
func (t *TupleSchema) Config() skema.Config      { return t.base.Config() }
func (t *TupleSchema) Registry() *skema.Registry { return t.base.Registry() }
func (t *TupleSchema) Label() string             { return t.base.Label() }
func (t *TupleSchema) Items() []skema.Schema     { return append([]skema.Schema(nil), t.items...) }
func (t *TupleSchema) Optional() skema.Schema    { return t.with(t.base.WithOptional()) }
func (t *TupleSchema) Nullable() skema.Schema    { return t.with(t.base.WithNullable()) }

// lengthOK reports whether n elements fit the declared positions.
func (t *TupleSchema) lengthOK(n int) bool {
	if n > len(t.items) {
		return false
	}
	for _, s := range t.items[n:] {
		if !isOptional(s) {
			return false
		}
	}
	return true
}

func (t *TupleSchema) Prepare(c skema.Context) (any, error) {
	v, err := t.base.Prepare(c)
	if err != nil {
		return nil, err
	}
	items, ok := skema.AsSlice(v)
	if !ok || len(items) > len(t.items) {
		return v, nil
	}
	out := make([]any, len(items))
	for i, it := range items {
		pv, err := t.items[i].Prepare(c.Child(skema.Index(i), it))
		if err != nil {
			return nil, err
		}
		out[i] = pv
	}
	return out, nil
}

// Validate reports a single tuple_length issue when the element count does not
// fit; otherwise positions are validated concurrently.
func (t *TupleSchema) Validate(c skema.Context, v any) (any, error) {
	if out, ok := t.base.ShortCircuit(v); ok {
		return out, nil
	}
	if err := t.base.CheckIdentity(c, v); err != nil {
		return nil, err
	}
	items, _ := skema.AsSlice(v)
	if !t.lengthOK(len(items)) {
		n := strconv.Itoa(len(t.items))
		return nil, skema.Issues{structural(t.base, c, v, skema.CodeTupleLength, map[string]string{"expected": n}, "expected", len(t.items), "actual", len(items))}
	}

	var iss skema.Issues
	if err := t.base.CheckRules(c, v); err != nil {
		ruleIss, uerr := skema.Classify(err)
		if uerr != nil {
			return nil, uerr
		}
		iss = ruleIss
	}
	outs, elemIss, err := validateChildren(t.base, c, len(items),
		skema.Index,
		func(i int) any { return items[i] },
		func(i int) skema.Schema { return t.items[i] })
	if err != nil {
		return nil, err
	}
	iss = append(iss, elemIss...)
	if len(iss) > 0 {
		return nil, iss
	}
	return outs, nil
}

func (t *TupleSchema) Transform(c skema.Context, v any) (any, error) {
	if _, ok := t.base.ShortCircuit(v); ok {
		return v, nil
	}
	items, ok := skema.AsSlice(v)
	if !ok || len(items) > len(t.items) {
		return t.base.Transform(c, v)
	}
	out := make([]any, len(items))
	for i, it := range items {
		tv, err := t.items[i].Transform(c.Child(skema.Index(i), it), it)
		if err != nil {
			return nil, err
		}
		out[i] = tv
	}
	return t.base.Transform(c.WithValue(out), out)
}

// Parse runs the pipeline with t as the root schema.
func (t *TupleSchema) Parse(ctx context.Context, data any, opts ...skema.ParseOption) (any, error) {
	return skema.Parse(ctx, t, data, opts...)
}

// SafeParse runs the pipeline with t as the root schema.
func (t *TupleSchema) SafeParse(ctx context.Context, data any, opts ...skema.ParseOption) skema.Result {
	return skema.SafeParse(ctx, t, data, opts...)
}
