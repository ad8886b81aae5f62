package skema

import "context"

// serviceKey is a unique key per type parameter T for context storage.
type serviceKey[T any] struct{}

// WithService stores a typed service instance in the context so custom
// validators can reach it through Context.Context().
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, any(svc))
}

// Service retrieves a typed service instance from the validation context.
func Service[T any](c Context) (T, bool) {
	var zero T
	v := c.Context().Value(serviceKey[T]{})
	if v == nil {
		return zero, false
	}
	if tv, ok := v.(T); ok {
		return tv, true
	}
	return zero, false
}

// RequireService returns the service or an error that surfaces as an
// unhandled error at the current path.
func RequireService[T any](c Context) (T, error) {
	if v, ok := Service[T](c); ok {
		return v, nil
	}
	var zero T
	return zero, &UnhandledError{Path: c.Path, Err: ErrServiceMissing}
}
