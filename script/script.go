// Package script compiles small JavaScript expressions into skema custom
// validators, preparations and transformations. Scripts run in sandboxed goja
// runtimes drawn from a bounded pool and are interrupted when the parse
// context is cancelled or the per-call timeout expires.
//
// An expression sees four bindings: value (the current value), args (the rule
// arguments), ctx (the user payload passed with skema.WithUser) and path (the
// current path as an array of keys).
package script

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/reoring/skema"
)

const (
	defaultPoolSize = 16
	defaultTimeout  = time.Second
	defaultMaxStack = 256
)

// Engine owns the runtime pool shared by its programs.
type Engine struct {
	pool    *pool
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	poolSize int
	timeout  time.Duration
	maxStack int
	logger   *zap.Logger
}

// WithPoolSize bounds the number of runtimes.
func WithPoolSize(n int) Option { return func(c *engineConfig) { c.poolSize = n } }

// WithTimeout bounds each script call. Zero disables the timeout.
func WithTimeout(d time.Duration) Option { return func(c *engineConfig) { c.timeout = d } }

// WithMaxCallStack bounds the JavaScript call stack depth.
func WithMaxCallStack(n int) Option { return func(c *engineConfig) { c.maxStack = n } }

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	cfg := engineConfig{poolSize: defaultPoolSize, timeout: defaultTimeout, maxStack: defaultMaxStack, logger: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.poolSize <= 0 {
		cfg.poolSize = defaultPoolSize
	}
	return &Engine{pool: newPool(cfg.poolSize, cfg.maxStack, cfg.logger), timeout: cfg.timeout, logger: cfg.logger}
}

// Close releases the pooled runtimes. Programs of a closed engine fail.
func (e *Engine) Close() { e.pool.close() }

var defaultEngine = sync.OnceValue(func() *Engine { return NewEngine() })

// Default returns the process-wide engine used by Compile.
func Default() *Engine { return defaultEngine() }

// Program is a compiled script bound to an engine.
type Program struct {
	engine *Engine
	src    string
	prog   *goja.Program
}

// Compile compiles an expression with the default engine.
func Compile(src string) (*Program, error) { return Default().Compile(src) }

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Program {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Compile compiles src. A source containing a return statement is treated
// as a function body; anything else as a single expression.
func (e *Engine) Compile(src string) (*Program, error) {
	body := "return (" + src + ");"
	if strings.Contains(src, "return") {
		body = src
	}
	wrapped := "(function(value, args, ctx, path) {\n" + body + "\n})"
	prog, err := goja.Compile("skema-script", wrapped, true)
	if err != nil {
		return nil, wrap(src, err)
	}
	return &Program{engine: e, src: src, prog: prog}, nil
}

// Source returns the script text.
func (p *Program) Source() string { return p.src }

// Run evaluates the program against the current context and value.
func (p *Program) Run(c skema.Context, v, args any) (any, error) {
	ctx := c.Context()
	if p.engine.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.engine.timeout)
		defer cancel()
	}
	vm, err := p.engine.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var interrupted atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			interrupted.Store(true)
			vm.Interrupt("script interrupted: " + ctx.Err().Error())
		case <-done:
		}
	}()

	out, err := p.call(vm, c, v, args)
	close(done)
	wg.Wait()
	discard := interrupted.Load()
	p.engine.pool.release(vm, discard)
	if discard {
		p.engine.logger.Warn("script: call interrupted",
			zap.String("path", c.Path.Pointer()), zap.Error(ctx.Err()))
	}
	if err != nil {
		return nil, wrap(p.src, err)
	}
	return out, nil
}

func (p *Program) call(vm *goja.Runtime, c skema.Context, v, args any) (any, error) {
	fnVal, err := vm.RunProgram(p.prog)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, fmt.Errorf("script: program did not evaluate to a function")
	}
	res, err := fn(goja.Undefined(), toJS(vm, v), toJS(vm, args), toJS(vm, c.User), vm.ToValue(c.Path.Keys()))
	if err != nil {
		return nil, err
	}
	if goja.IsUndefined(res) {
		return skema.Undefined, nil
	}
	if goja.IsNull(res) {
		return nil, nil
	}
	return res.Export(), nil
}

// toJS converts a Go value, mapping skema.Undefined to JavaScript undefined
// and sets to arrays.
func toJS(vm *goja.Runtime, v any) goja.Value {
	switch t := v.(type) {
	case nil:
		return goja.Null()
	case *skema.Set:
		return vm.ToValue(t.Items())
	}
	if skema.IsUndefined(v) {
		return goja.Undefined()
	}
	return vm.ToValue(v)
}

// Validator adapts the program into a validator; a truthy result passes.
func (p *Program) Validator() skema.ValidatorFunc {
	return func(c skema.Context, v any, args any, _ skema.Schema) (bool, error) {
		out, err := p.Run(c, v, args)
		if err != nil {
			return false, err
		}
		return truthy(out), nil
	}
}

// Transform adapts the program into a transformation (or preparation).
func (p *Program) Transform() skema.TransformFunc {
	return func(c skema.Context, v any, args any, _ skema.Schema) (any, error) {
		return p.Run(c, v, args)
	}
}

// Prepare adapts the program into a preparation.
func (p *Program) Prepare() skema.PrepareFunc {
	return func(c skema.Context, v any, args any, _ skema.Schema) (any, error) {
		return p.Run(c, v, args)
	}
}

// Custom wraps the program as a named custom validator. An empty message
// defers to the custom message chain.
func (p *Program) Custom(name, message string) skema.Custom {
	cu := skema.Custom{Name: name, Validate: p.Validator()}
	if message != "" {
		cu.Message = skema.Text(message)
	}
	return cu
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int64:
		return t != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	}
	return !skema.IsUndefined(v)
}
