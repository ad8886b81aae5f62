package dsl

import (
	"errors"
	"fmt"

	"github.com/reoring/skema"
)

// ErrDelegatedSteps is returned when a switch or lazy schema is configured
// with its own steps or validators. Those schemas delegate every stage to
// their target, so only label, messages, optional and nullable apply.
var ErrDelegatedSteps = errors.New("dsl: delegating schema accepts no steps or validators")

func checkDelegating(dt skema.DataType, cfg skema.Config) error {
	if len(cfg.Prepare)+len(cfg.CustomPrepare)+len(cfg.Validate)+len(cfg.Custom)+len(cfg.Transform)+len(cfg.CustomTransform) > 0 {
		return fmt.Errorf("%w: %s schema", ErrDelegatedSteps, dt)
	}
	return nil
}

// Option mutates the configuration of a schema under construction.
type Option func(*skema.Config)

func configOf(opts []Option) skema.Config {
	var cfg skema.Config
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}

// Rule appends a named validator. Args follow skema.Use: none, one value, or a slice.
func Rule(name string, args ...any) Option {
	return func(c *skema.Config) { c.Validate = append(c.Validate, skema.Use(name, args...)) }
}

// Prepare appends a named preparation.
func Prepare(name string, args ...any) Option {
	return func(c *skema.Config) { c.Prepare = append(c.Prepare, skema.Use(name, args...)) }
}

// Transform appends a named transformation.
func Transform(name string, args ...any) Option {
	return func(c *skema.Config) { c.Transform = append(c.Transform, skema.Use(name, args...)) }
}

// Label sets the label used in messages.
func Label(s string) Option { return func(c *skema.Config) { c.Label = s } }

// Message overrides the message for a rule name ("identity", a rule, "custom",
// "required", "unknown_key", ...).
func Message(rule string, fn skema.MessageFunc) Option {
	return func(c *skema.Config) {
		if c.Messages == nil {
			c.Messages = map[string]skema.MessageFunc{}
		}
		c.Messages[rule] = fn
	}
}

// MessageText is Message with a fixed string.
func MessageText(rule, text string) Option { return Message(rule, skema.Text(text)) }

// Check adds an inline validator. The message is resolved through the custom
// message chain when msg is nil.
func Check(name string, fn skema.ValidatorFunc, msg skema.MessageFunc) Option {
	return func(c *skema.Config) {
		c.Custom = append(c.Custom, skema.Custom{Name: name, Validate: fn, Message: msg})
	}
}

// Refine is Check for a plain predicate over the value.
func Refine(name string, pred func(v any) bool, msg string) Option {
	var m skema.MessageFunc
	if msg != "" {
		m = skema.Text(msg)
	}
	return Check(name, func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) { return pred(v), nil }, m)
}

// Custom appends fully specified custom validators.
func Custom(cs ...skema.Custom) Option {
	return func(c *skema.Config) { c.Custom = append(c.Custom, cs...) }
}

// PrepareFunc appends an inline preparation.
func PrepareFunc(fn skema.PrepareFunc) Option {
	return func(c *skema.Config) { c.CustomPrepare = append(c.CustomPrepare, fn) }
}

// TransformFunc appends an inline transformation.
func TransformFunc(fn skema.TransformFunc) Option {
	return func(c *skema.Config) { c.CustomTransform = append(c.CustomTransform, fn) }
}

// Optional marks the schema as accepting skema.Undefined.
func Optional() Option { return func(c *skema.Config) { c.Optional = true } }

// Nullable marks the schema as accepting nil.
func Nullable() Option { return func(c *skema.Config) { c.Nullable = true } }

// Strict rejects object keys that have no declared property.
func Strict() Option { return Unknown(skema.UnknownStrict) }

// Strip drops object keys that have no declared property.
func Strip() Option { return Unknown(skema.UnknownStrip) }

// Passthrough copies undeclared object keys into the output (default).
func Passthrough() Option { return Unknown(skema.UnknownPassthrough) }

// Unknown sets the unknown-key policy.
func Unknown(p skema.UnknownPolicy) Option { return func(c *skema.Config) { c.Unknown = p } }

// AllowUnknownRules drops rule names the registry does not know instead of
// failing construction.
func AllowUnknownRules() Option { return func(c *skema.Config) { c.AllowUnknownRules = true } }

// WithConfig replaces the whole configuration; later options still apply.
func WithConfig(cfg skema.Config) Option { return func(c *skema.Config) { *c = cfg.Clone() } }
