package skema

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Schema is a node in a schema graph. The three stage methods implement the
// pipeline; Parse and SafeParse drive them from the root.
type Schema interface {
	DataType() DataType
	Config() Config
	Registry() *Registry
	// Prepare coerces c.Value before validation.
	Prepare(c Context) (any, error)
	// Validate checks v and returns the validated value, or Issues.
	Validate(c Context, v any) (any, error)
	// Transform maps an already validated value to its output form.
	Transform(c Context, v any) (any, error)
	// Optional returns a copy that accepts Undefined.
	Optional() Schema
	// Nullable returns a copy that accepts nil.
	Nullable() Schema
}

type boundStep struct {
	name string
	args any
	fn   func(c Context, v any, args any, s Schema) (any, error)
}

type boundRule struct {
	name    string
	args    any
	fn      ValidatorFunc
	custom  bool
	message MessageFunc
}

// Base implements the prepare → validate → transform pipeline for one data
// type. Primitive schemas are plain *Base values; structural variants wrap a
// Base and reuse its stages.
type Base struct {
	reg      *Registry
	dataType DataType
	cfg      Config
	label    string
	owner    Schema

	identity        Rule
	preparations    []boundStep
	validators      []boundRule
	transformations []boundStep
}

var _ Schema = (*Base)(nil)

// NewBase resolves cfg against reg. Rule names unknown to reg fail with
// ErrUnknownRule unless cfg.AllowUnknownRules is set.
func NewBase(reg *Registry, dt DataType, cfg Config) (*Base, error) {
	if reg == nil {
		return nil, fmt.Errorf("skema: nil registry for %s schema", dt)
	}
	cfg = cfg.Clone()
	b := &Base{reg: reg, dataType: dt, cfg: cfg, identity: reg.Identity(dt)}
	b.label = cfg.Label
	if b.label == "" {
		b.label = defaultLabel(dt)
	}

	var unknown []string
	for _, st := range cfg.Prepare {
		fn, ok := reg.Preparation(dt, st.Name)
		if !ok {
			unknown = append(unknown, "prepare."+st.Name)
			continue
		}
		b.preparations = append(b.preparations, boundStep{name: st.Name, args: st.Args, fn: fn})
	}
	for _, fn := range cfg.CustomPrepare {
		if fn != nil {
			b.preparations = append(b.preparations, boundStep{name: RuleCustom, fn: fn})
		}
	}
	for _, st := range cfg.Validate {
		if st.Name == RuleIdentity {
			continue
		}
		rule, ok := reg.Rule(dt, st.Name)
		if !ok || rule.Validate == nil {
			unknown = append(unknown, "validate."+st.Name)
			continue
		}
		b.validators = append(b.validators, boundRule{name: st.Name, args: st.Args, fn: rule.Validate, message: rule.Message})
	}
	for _, cu := range cfg.Custom {
		if cu.Validate == nil {
			continue
		}
		name := cu.Name
		if name == "" {
			name = RuleCustom
		}
		b.validators = append(b.validators, boundRule{name: name, args: cu.Args, fn: cu.Validate, custom: true, message: cu.Message})
	}
	for _, st := range cfg.Transform {
		fn, ok := reg.Transformation(dt, st.Name)
		if !ok {
			unknown = append(unknown, "transform."+st.Name)
			continue
		}
		b.transformations = append(b.transformations, boundStep{name: st.Name, args: st.Args, fn: fn})
	}
	for _, fn := range cfg.CustomTransform {
		if fn != nil {
			b.transformations = append(b.transformations, boundStep{name: RuleCustom, fn: fn})
		}
	}

	if len(unknown) > 0 {
		if !cfg.AllowUnknownRules {
			return nil, fmt.Errorf("%w: %s: %s", ErrUnknownRule, dt, strings.Join(unknown, ", "))
		}
		reg.logger.Warn("skema: dropping unknown rules",
			zap.String("data_type", string(dt)), zap.Strings("rules", unknown))
	}
	return b, nil
}

// MustBase is like NewBase but panics on error.
func MustBase(reg *Registry, dt DataType, cfg Config) *Base {
	b, err := NewBase(reg, dt, cfg)
	if err != nil {
		panic(err)
	}
	return b
}

// Bind returns a copy of b that passes owner to rule functions as their schema
// argument. Structural variants bind themselves to their Base.
func (b *Base) Bind(owner Schema) *Base {
	nb := *b
	nb.owner = owner
	return &nb
}

// Rebuild constructs a new Base from b's config after applying fn.
func (b *Base) Rebuild(fn func(*Config)) (*Base, error) {
	cfg := b.cfg.Clone()
	fn(&cfg)
	return NewBase(b.reg, b.dataType, cfg)
}

func (b *Base) withFlags(optional, nullable bool) *Base {
	nb := *b
	nb.cfg = b.cfg.Clone()
	nb.cfg.Optional = nb.cfg.Optional || optional
	nb.cfg.Nullable = nb.cfg.Nullable || nullable
	nb.owner = nil
	return &nb
}

// WithOptional returns a copy of b marked optional.
func (b *Base) WithOptional() *Base { return b.withFlags(true, false) }

// WithNullable returns a copy of b marked nullable.
func (b *Base) WithNullable() *Base { return b.withFlags(false, true) }

func (b *Base) self() Schema {
	if b.owner != nil {
		return b.owner
	}
	return b
}

func (b *Base) DataType() DataType   { return b.dataType }
func (b *Base) Config() Config       { return b.cfg.Clone() }
func (b *Base) Registry() *Registry  { return b.reg }
func (b *Base) Label() string        { return b.label }
func (b *Base) Optional() Schema     { return b.WithOptional() }
func (b *Base) Nullable() Schema     { return b.WithNullable() }
func (b *Base) IsOptional() bool     { return b.cfg.Optional }
func (b *Base) IsNullable() bool     { return b.cfg.Nullable }
func (b *Base) Unknown() UnknownPolicy { return b.cfg.Unknown }

// Prepare runs the configured preparations in declaration order, then custom
// preparations; each receives the previous output.
func (b *Base) Prepare(c Context) (any, error) {
	return b.runSteps(c, c.Value, b.preparations)
}

// Validate short-circuits optional and nullable values, checks identity, then
// runs the remaining validators.
func (b *Base) Validate(c Context, v any) (any, error) {
	if out, ok := b.ShortCircuit(v); ok {
		return out, nil
	}
	if err := b.CheckIdentity(c, v); err != nil {
		return nil, err
	}
	if err := b.CheckRules(c.WithValue(v), v); err != nil {
		return nil, err
	}
	return v, nil
}

// Transform runs the configured transformations in order, then custom ones.
// Short-circuited Undefined and nil values pass through untouched.
func (b *Base) Transform(c Context, v any) (any, error) {
	if _, ok := b.ShortCircuit(v); ok {
		return v, nil
	}
	return b.runSteps(c, v, b.transformations)
}

// Parse runs the pipeline with b as the root schema.
func (b *Base) Parse(ctx context.Context, data any, opts ...ParseOption) (any, error) {
	return Parse(ctx, b, data, opts...)
}

// SafeParse runs the pipeline with b as the root schema.
func (b *Base) SafeParse(ctx context.Context, data any, opts ...ParseOption) Result {
	return SafeParse(ctx, b, data, opts...)
}

// ShortCircuit reports whether v is accepted by the optional or nullable flag
// without further checks.
func (b *Base) ShortCircuit(v any) (any, bool) {
	if b.cfg.Optional && IsUndefined(v) {
		return Undefined, true
	}
	if b.cfg.Nullable && v == nil {
		return nil, true
	}
	return nil, false
}

// CheckIdentity runs the identity validator and returns exactly one issue when
// v is not a member of the data type.
func (b *Base) CheckIdentity(c Context, v any) error {
	ok, err := b.call(c, b.identity.Validate, v, nil)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	mc := b.messageContext(c, v, RuleIdentity, nil)
	msg := resolveMessage(mc, b.cfg.Messages[RuleIdentity], b.identity.Message)
	return Issues{{Path: c.Path, Code: CodeInvalidType, Message: msg, Rule: RuleIdentity}}
}

// CheckRules runs every named and custom validator against v. Validators run
// independently; issues are returned in declaration order.
func (b *Base) CheckRules(c Context, v any) error {
	n := len(b.validators)
	if n == 0 {
		return nil
	}
	slots := make([]Issues, n)
	err := b.reg.Each(c.Context(), n, func(ctx context.Context, i int) error {
		r := b.validators[i]
		cc := c.WithContext(ctx)
		ok, err := b.call(cc, r.fn, v, r.args)
		if err != nil {
			iss, uerr := Classify(err)
			if uerr != nil {
				return uerr
			}
			slots[i] = Rebase(iss, c.Path)
			return nil
		}
		if !ok {
			slots[i] = Issues{b.ruleIssue(cc, v, r)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	var all Issues
	for _, s := range slots {
		all = append(all, s...)
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

// Each fans out over n children using the registry's concurrency limit.
func (b *Base) Each(c Context, n int, fn func(c Context, i int) error) error {
	return b.reg.Each(c.Context(), n, func(ctx context.Context, i int) error {
		return fn(c.WithContext(ctx), i)
	})
}

// Message resolves a structural message for this node using the config
// override for name, then fallback.
func (b *Base) Message(c Context, v any, name string, fallback MessageFunc) string {
	mc := b.messageContext(c, v, name, nil)
	def, _ := b.reg.DefaultMessage(b.dataType, name)
	return resolveMessage(mc, b.cfg.Messages[name], def, fallback)
}

func (b *Base) ruleIssue(c Context, v any, r boundRule) Issue {
	mc := b.messageContext(c, v, r.name, r.args)
	if r.custom {
		def, _ := b.reg.DefaultMessage(b.dataType, RuleCustom)
		msg := resolveMessage(mc, r.message, b.cfg.Messages[r.name], b.cfg.Messages[RuleCustom], def)
		return Issue{Path: c.Path, Code: CodeCustom, Message: msg, Rule: r.name}
	}
	msg := resolveMessage(mc, b.cfg.Messages[r.name], r.message)
	var params map[string]any
	if r.args != nil {
		params = map[string]any{"args": r.args}
	}
	return Issue{Path: c.Path, Code: r.name, Message: msg, Rule: r.name, Params: params}
}

func (b *Base) messageContext(c Context, v any, name string, args any) MessageContext {
	return MessageContext{
		Label:    b.label,
		Value:    v,
		Path:     c.Path,
		DataType: b.dataType,
		User:     c.User,
		Args:     args,
		Schema:   b.self(),
		Rule:     name,
	}
}

func (b *Base) call(c Context, fn ValidatorFunc, v, args any) (bool, error) {
	var ok bool
	err := Guard(c.Path, func() error {
		var err error
		ok, err = fn(c.WithValue(v), v, args, b.self())
		return err
	})
	return ok, err
}

func (b *Base) runSteps(c Context, v any, steps []boundStep) (any, error) {
	for _, st := range steps {
		if err := c.Err(); err != nil {
			return nil, &UnhandledError{Path: c.Path, Err: err}
		}
		cur := v
		err := Guard(c.Path, func() error {
			out, err := st.fn(c.WithValue(cur), cur, st.args, b.self())
			if err == nil {
				v = out
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Rebase assigns base to issues that carry no path.
func Rebase(iss Issues, base Path) Issues {
	if len(base) == 0 {
		return iss
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		if len(it.Path) == 0 {
			it.Path = base
		}
		out[i] = it
	}
	return out
}
