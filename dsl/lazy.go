package dsl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/reoring/skema"
)

// resolver memoizes a lazy target. Optional/Nullable copies of a LazySchema
// share it, so the function runs at most once per original schema.
type resolver struct {
	once   sync.Once
	fn     func() skema.Schema
	name   string
	target skema.Schema
	err    error
}

func (r *resolver) resolve(reg *skema.Registry, at skema.Path) (skema.Schema, error) {
	r.once.Do(func() {
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("dsl: lazy resolver panicked: %v", p)
			}
		}()
		r.target = r.fn()
		if r.target == nil {
			r.err = fmt.Errorf("%w: %s", skema.ErrUnresolvedRef, r.label())
			return
		}
		reg.Logger().Debug("skema: lazy schema resolved",
			zap.String("ref", r.label()),
			zap.String("data_type", string(r.target.DataType())),
			zap.String("path", at.Pointer()))
	})
	if r.err != nil {
		return nil, &skema.UnhandledError{Path: at, Err: r.err}
	}
	return r.target, nil
}

func (r *resolver) label() string {
	if r.name == "" {
		return "lazy"
	}
	return r.name
}

// LazySchema defers to a schema produced on first use, enabling recursive
// graphs.
type LazySchema struct {
	base *skema.Base
	res  *resolver
}

var _ skema.Schema = (*LazySchema)(nil)

// NewLazy builds a lazy schema over resolve.
func NewLazy(reg *skema.Registry, resolve func() skema.Schema, opts ...Option) (*LazySchema, error) {
	return newLazy(reg, "", resolve, opts...)
}

func newLazy(reg *skema.Registry, name string, resolve func() skema.Schema, opts ...Option) (*LazySchema, error) {
	if resolve == nil {
		return nil, errors.New("dsl: lazy resolver is nil")
	}
	cfg := configOf(opts)
	if err := checkDelegating(skema.DataLazy, cfg); err != nil {
		return nil, err
	}
	base, err := skema.NewBase(reg, skema.DataLazy, cfg)
	if err != nil {
		return nil, err
	}
	l := &LazySchema{res: &resolver{fn: resolve, name: name}}
	l.base = base.Bind(l)
	return l, nil
}

func (l *LazySchema) with(base *skema.Base) *LazySchema {
	n := &LazySchema{res: l.res}
	n.base = base.Bind(n)
	return n
}

func (l *LazySchema) DataType() skema.DataType  { return l.base.DataType() }
func (l *LazySchema) Config() skema.Config      { return l.base.Config() }
func (l *LazySchema) Registry() *skema.Registry { return l.base.Registry() }
func (l *LazySchema) Label() string             { return l.base.Label() }
func (l *LazySchema) Optional() skema.Schema    { return l.with(l.base.WithOptional()) }
func (l *LazySchema) Nullable() skema.Schema    { return l.with(l.base.WithNullable()) }

// Ref returns the reference name for schemas created by Definitions.Ref.
func (l *LazySchema) Ref() string { return l.res.name }

// Resolve returns the target schema, invoking the resolver on first use.
func (l *LazySchema) Resolve() (skema.Schema, error) {
	return l.res.resolve(l.base.Registry(), nil)
}

func (l *LazySchema) Prepare(c skema.Context) (any, error) {
	t, err := l.res.resolve(l.base.Registry(), c.Path)
	if err != nil {
		return nil, err
	}
	return t.Prepare(c)
}

func (l *LazySchema) Validate(c skema.Context, v any) (any, error) {
	if out, ok := l.base.ShortCircuit(v); ok {
		return out, nil
	}
	t, err := l.res.resolve(l.base.Registry(), c.Path)
	if err != nil {
		return nil, err
	}
	return t.Validate(c, v)
}

func (l *LazySchema) Transform(c skema.Context, v any) (any, error) {
	if _, ok := l.base.ShortCircuit(v); ok {
		return v, nil
	}
	t, err := l.res.resolve(l.base.Registry(), c.Path)
	if err != nil {
		return nil, err
	}
	return t.Transform(c, v)
}

// Parse runs the pipeline with l as the root schema.
func (l *LazySchema) Parse(ctx context.Context, data any, opts ...skema.ParseOption) (any, error) {
	return skema.Parse(ctx, l, data, opts...)
}

// SafeParse runs the pipeline with l as the root schema.
func (l *LazySchema) SafeParse(ctx context.Context, data any, opts ...skema.ParseOption) skema.Result {
	return skema.SafeParse(ctx, l, data, opts...)
}
