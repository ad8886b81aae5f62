package skema

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/reoring/skema/i18n"
)

// Status discriminates a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the outcome of SafeParse. Exactly one of Data or Error is meaningful.
type Result struct {
	Status Status `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  Issues `json:"error,omitempty"`
}

// OK reports success.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Err returns the issues as an error, or nil on success.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return r.Error
}

type parseOptions struct {
	user any
}

// ParseOption configures a single parse call.
type ParseOption func(*parseOptions)

// WithUser attaches an opaque payload exposed as Context.User to every rule.
func WithUser(v any) ParseOption { return func(o *parseOptions) { o.user = v } }

// Run drives s through prepare → validate → transform starting at c. Composite
// schemas use it to run a child's full pipeline at a nested path.
func Run(c Context, s Schema) (any, error) {
	if err := c.Err(); err != nil {
		return nil, &UnhandledError{Path: c.Path, Err: err}
	}
	prepared, err := s.Prepare(c)
	if err != nil {
		return nil, err
	}
	c = c.WithValue(prepared)
	validated, err := s.Validate(c, prepared)
	if err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, &UnhandledError{Path: c.Path, Err: err}
	}
	return s.Transform(c.WithValue(validated), validated)
}

// Parse returns the output value or the Issues describing why data is invalid.
func Parse(ctx context.Context, s Schema, data any, opts ...ParseOption) (any, error) {
	r := SafeParse(ctx, s, data, opts...)
	if !r.OK() {
		return nil, r.Error
	}
	return r.Data, nil
}

// SafeParse never returns a raw error: validation failures come back as Issues
// and unexpected failures (including panics in user functions) become a
// single unhandled_error issue at the path where they happened.
func SafeParse(ctx context.Context, s Schema, data any, opts ...ParseOption) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	var o parseOptions
	for _, fn := range opts {
		fn(&o)
	}
	reg := s.Registry()
	ctx, span := reg.tracer.Start(ctx, "skema.SafeParse",
		trace.WithAttributes(attribute.String("skema.data_type", string(s.DataType()))))
	defer span.End()

	c := NewContext(ctx, data, o.user)
	var out any
	err := Guard(nil, func() error {
		var err error
		out, err = Run(c, s)
		return err
	})
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return Result{Status: StatusSuccess, Data: out}
	}

	iss, uerr := Classify(err)
	if uerr != nil {
		iss = Issues{unhandledIssue(uerr)}
		reg.logger.Warn("skema: unhandled error during parse",
			zap.String("path", iss[0].Path.Pointer()), zap.Error(uerr))
	}
	span.SetAttributes(attribute.Int("skema.issues", len(iss)))
	span.SetStatus(codes.Error, iss.Error())
	return Result{Status: StatusError, Error: iss}
}

func unhandledIssue(err error) Issue {
	var p Path
	var ue *UnhandledError
	if errors.As(err, &ue) {
		p = ue.Path
	}
	return Issue{Path: p, Code: CodeUnhandledError, Message: i18n.T(CodeUnhandledError, nil), Cause: err}
}
