package skema

import "context"

// Context is the validation context threaded through every pipeline stage.
// It is a value: Child and WithValue return new contexts and never modify the
// receiver, so sibling branches can be validated concurrently.
type Context struct {
	ctx   context.Context
	Root  any
	Path  Path
	Value any
	User  any
}

// NewContext creates a root validation context for one parse call.
func NewContext(ctx context.Context, data, user any) Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return Context{ctx: ctx, Root: data, Value: data, User: user}
}

// Context returns the Go context carried by c.
func (c Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// WithContext returns a copy of c bound to ctx.
func (c Context) WithContext(ctx context.Context) Context {
	c.ctx = ctx
	return c
}

// WithValue returns a copy of c whose current value is v.
func (c Context) WithValue(v any) Context {
	c.Value = v
	return c
}

// Child returns a context for a nested value at key.
func (c Context) Child(key PathKey, v any) Context {
	c.Path = c.Path.Append(key)
	c.Value = v
	return c
}

// Err reports cancellation of the underlying Go context.
func (c Context) Err() error { return c.Context().Err() }

// Issue creates an Issue at the current path.
func (c Context) Issue(code, msg string, kv ...any) Issue {
	return c.Path.Issue(code, msg, kv...)
}
