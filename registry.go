package skema

import (
	"context"
	"maps"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ValidatorFunc reports whether v satisfies a rule. Returning Issues adds them
// to the node's collection; any other error is treated as unhandled.
type ValidatorFunc func(c Context, v any, args any, s Schema) (bool, error)

// PrepareFunc coerces or normalizes a value before validation.
type PrepareFunc func(c Context, v any, args any, s Schema) (any, error)

// TransformFunc maps a validated value to its output form.
type TransformFunc func(c Context, v any, args any, s Schema) (any, error)

// Rule pairs a validator with its default message producer. A rule with only a
// Message (for example "custom") supplies a default message and cannot be
// referenced from a config.
type Rule struct {
	Validate ValidatorFunc
	Message  MessageFunc
}

// Plugin contributes rule tables for one data type.
type Plugin struct {
	DataType  DataType
	Prepare   map[string]PrepareFunc
	Validate  map[string]Rule
	Transform map[string]TransformFunc
}

const (
	// RuleIdentity names the mandatory type-membership validator.
	RuleIdentity = "identity"
	// RuleCustom names the default message producer for custom validators.
	RuleCustom = "custom"
)

type table struct {
	prepare   map[string]PrepareFunc
	validate  map[string]Rule
	transform map[string]TransformFunc
}

// Registry holds the merged plugin tables. It is immutable after NewRegistry
// returns and is shared by reference between all schemas built against it.
type Registry struct {
	types  map[DataType]*table
	logger *zap.Logger
	tracer trace.Tracer
	limit  int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for construction and unhandled-error reports.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracerProvider enables a span per SafeParse call.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Registry) {
		if tp != nil {
			r.tracer = tp.Tracer("github.com/reoring/skema")
		}
	}
}

// WithConcurrency bounds the number of goroutines one node uses to validate its
// children or rules. Values below 1 mean sequential execution.
func WithConcurrency(n int) Option {
	return func(r *Registry) { r.limit = n }
}

const defaultConcurrency = 8

// NewRegistry merges plugins in order. Later plugins for the same data type
// augment the tables of earlier ones; entries with the same name are replaced.
func NewRegistry(plugins []Plugin, opts ...Option) *Registry {
	r := &Registry{
		types:  map[DataType]*table{},
		logger: zap.NewNop(),
		tracer: noop.NewTracerProvider().Tracer("github.com/reoring/skema"),
		limit:  defaultConcurrency,
	}
	for _, o := range opts {
		o(r)
	}
	for _, p := range plugins {
		t, ok := r.types[p.DataType]
		if !ok {
			t = &table{prepare: map[string]PrepareFunc{}, validate: map[string]Rule{}, transform: map[string]TransformFunc{}}
			r.types[p.DataType] = t
		}
		maps.Copy(t.prepare, p.Prepare)
		maps.Copy(t.validate, p.Validate)
		maps.Copy(t.transform, p.Transform)
		r.logger.Debug("skema: plugin registered",
			zap.String("data_type", string(p.DataType)),
			zap.Int("prepare", len(p.Prepare)),
			zap.Int("validate", len(p.Validate)),
			zap.Int("transform", len(p.Transform)))
	}
	for dt, t := range r.types {
		if _, ok := t.validate[RuleIdentity]; !ok {
			r.logger.Warn("skema: data type has no identity validator", zap.String("data_type", string(dt)))
		}
	}
	return r
}

// Logger returns the registry logger.
func (r *Registry) Logger() *zap.Logger { return r.logger }

// Identity returns the identity rule for dt. Unregistered types get a
// fail-closed identity that rejects every value.
func (r *Registry) Identity(dt DataType) Rule {
	if t, ok := r.types[dt]; ok {
		if rule, ok := t.validate[RuleIdentity]; ok && rule.Validate != nil {
			return rule
		}
	}
	return Rule{Validate: func(Context, any, any, Schema) (bool, error) { return false, nil }}
}

// Rule looks up a named validator.
func (r *Registry) Rule(dt DataType, name string) (Rule, bool) {
	t, ok := r.types[dt]
	if !ok {
		return Rule{}, false
	}
	rule, ok := t.validate[name]
	return rule, ok
}

// Preparation looks up a named preparation.
func (r *Registry) Preparation(dt DataType, name string) (PrepareFunc, bool) {
	t, ok := r.types[dt]
	if !ok {
		return nil, false
	}
	fn, ok := t.prepare[name]
	return fn, ok
}

// Transformation looks up a named transformation.
func (r *Registry) Transformation(dt DataType, name string) (TransformFunc, bool) {
	t, ok := r.types[dt]
	if !ok {
		return nil, false
	}
	fn, ok := t.transform[name]
	return fn, ok
}

// DefaultMessage returns the registry message producer for (dt, name).
func (r *Registry) DefaultMessage(dt DataType, name string) (MessageFunc, bool) {
	rule, ok := r.Rule(dt, name)
	if !ok || rule.Message == nil {
		return nil, false
	}
	return rule.Message, true
}

// Each runs fn for every index in [0, n). Work is spread over at most the
// registry's concurrency limit; fn reports only unexpected errors, which cancel
// the remaining work. Callers collect results into index slots so the outcome
// does not depend on completion order.
func (r *Registry) Each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	if n == 1 || r.limit <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(gctx, i) })
	}
	return g.Wait()
}
