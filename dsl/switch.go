package dsl

import (
	"context"
	"errors"
	"maps"

	"github.com/reoring/skema"
)

// Selector computes the dispatch key from the current stage's context. It may
// be called once per stage, so it must be free of side effects.
type Selector func(c skema.Context) string

// FieldSelector selects on the string form of an object property. Missing
// properties and non-object values select "".
func FieldSelector(name string) Selector {
	return func(c skema.Context) string {
		m, ok := skema.AsMap(c.Value)
		if !ok {
			return ""
		}
		v, ok := m[name]
		if !ok || v == nil || skema.IsUndefined(v) {
			return ""
		}
		return keyString(v)
	}
}

type switchConfig struct {
	opts          []Option
	def           skema.Schema
	failOnNoMatch bool
}

// SwitchOption configures a switch schema.
type SwitchOption func(*switchConfig)

// Default sets the branch used when no case matches.
func Default(s skema.Schema) SwitchOption { return func(c *switchConfig) { c.def = s } }

// FailOnNoMatch reports a no_switch_match issue at validate time when neither
// a case nor a default matches.
func FailOnNoMatch() SwitchOption { return func(c *switchConfig) { c.failOnNoMatch = true } }

// SwitchOptions applies schema options (label, messages, optional, ...) to the switch.
func SwitchOptions(opts ...Option) SwitchOption {
	return func(c *switchConfig) { c.opts = append(c.opts, opts...) }
}

// SwitchSchema dispatches each stage to the branch chosen by its selector.
// The selector runs independently per stage, so preparation that changes the
// discriminant can route validation to a different branch.
type SwitchSchema struct {
	base          *skema.Base
	selector      Selector
	cases         map[string]skema.Schema
	def           skema.Schema
	failOnNoMatch bool
}

var _ skema.Schema = (*SwitchSchema)(nil)

// NewSwitch builds a switch schema.
func NewSwitch(reg *skema.Registry, sel Selector, cases map[string]skema.Schema, opts ...SwitchOption) (*SwitchSchema, error) {
	if sel == nil {
		return nil, errors.New("dsl: switch selector is nil")
	}
	var sc switchConfig
	for _, o := range opts {
		o(&sc)
	}
	cfg := configOf(sc.opts)
	if err := checkDelegating(skema.DataSwitch, cfg); err != nil {
		return nil, err
	}
	base, err := skema.NewBase(reg, skema.DataSwitch, cfg)
	if err != nil {
		return nil, err
	}
	s := &SwitchSchema{selector: sel, cases: maps.Clone(cases), def: sc.def, failOnNoMatch: sc.failOnNoMatch}
	s.base = base.Bind(s)
	return s, nil
}

func (s *SwitchSchema) with(base *skema.Base) *SwitchSchema {
	n := *s
	n.base = base.Bind(&n)
	return &n
}

func (s *SwitchSchema) DataType() skema.DataType  { return s.base.DataType() }
func (s *SwitchSchema) Config() skema.Config      { return s.base.Config() }
func (s *SwitchSchema) Registry() *skema.Registry { return s.base.Registry() }
func (s *SwitchSchema) Label() string             { return s.base.Label() }
func (s *SwitchSchema) Optional() skema.Schema    { return s.with(s.base.WithOptional()) }
func (s *SwitchSchema) Nullable() skema.Schema    { return s.with(s.base.WithNullable()) }

// Cases returns a copy of the case table.
func (s *SwitchSchema) Cases() map[string]skema.Schema { return maps.Clone(s.cases) }

// DefaultCase returns the default branch, if any.
func (s *SwitchSchema) DefaultCase() skema.Schema { return s.def }

// pick evaluates the selector against c.Value and returns the branch, if any.
func (s *SwitchSchema) pick(c skema.Context) (string, skema.Schema, error) {
	var key string
	err := skema.Guard(c.Path, func() error {
		key = s.selector(c)
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if b, ok := s.cases[key]; ok {
		return key, b, nil
	}
	return key, s.def, nil
}

func (s *SwitchSchema) Prepare(c skema.Context) (any, error) {
	_, branch, err := s.pick(c)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return c.Value, nil
	}
	return branch.Prepare(c)
}

func (s *SwitchSchema) Validate(c skema.Context, v any) (any, error) {
	if out, ok := s.base.ShortCircuit(v); ok {
		return out, nil
	}
	c = c.WithValue(v)
	key, branch, err := s.pick(c)
	if err != nil {
		return nil, err
	}
	if branch != nil {
		return branch.Validate(c, v)
	}
	if s.failOnNoMatch {
		return nil, skema.Issues{structural(s.base, c, v, skema.CodeNoSwitchMatch, map[string]string{"key": key}, "key", key)}
	}
	return v, nil
}

func (s *SwitchSchema) Transform(c skema.Context, v any) (any, error) {
	if _, ok := s.base.ShortCircuit(v); ok {
		return v, nil
	}
	c = c.WithValue(v)
	_, branch, err := s.pick(c)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return v, nil
	}
	return branch.Transform(c, v)
}

// Parse runs the pipeline with s as the root schema.
func (s *SwitchSchema) Parse(ctx context.Context, data any, opts ...skema.ParseOption) (any, error) {
	return skema.Parse(ctx, s, data, opts...)
}

// SafeParse runs the pipeline with s as the root schema.
func (s *SwitchSchema) SafeParse(ctx context.Context, data any, opts ...skema.ParseOption) skema.Result {
	return skema.SafeParse(ctx, s, data, opts...)
}
