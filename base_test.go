package skema_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/skema"
	"github.com/reoring/skema/builtin"
)

func newString(t *testing.T, cfg skema.Config) *skema.Base {
	t.Helper()
	b, err := skema.NewBase(builtin.Registry(), skema.DataString, cfg)
	require.NoError(t, err)
	return b
}

func TestBase_IdentityFailureIsSingleIssue(t *testing.T) {
	var calls atomic.Int32
	s := newString(t, skema.Config{
		Validate: []skema.Step{skema.Use("minLength", 3), skema.Use("email")},
		Custom: []skema.Custom{{Name: "counted", Validate: func(skema.Context, any, any, skema.Schema) (bool, error) {
			calls.Add(1)
			return false, nil
		}}},
	})

	_, err := s.Parse(context.Background(), 42)
	iss, ok := skema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, skema.CodeInvalidType, iss[0].Code)
	assert.Equal(t, "String must be a string.", iss[0].Message)
	assert.Equal(t, "identity", iss[0].Rule)
	assert.Zero(t, calls.Load(), "custom validators must not run after an identity failure")
}

func TestBase_AllRulesRunInDeclarationOrder(t *testing.T) {
	s := newString(t, skema.Config{
		Label:    "Name",
		Validate: []skema.Step{skema.Use("minLength", 5), skema.Use("startsWith", "x"), skema.Use("email")},
	})

	_, err := s.Parse(context.Background(), "ab")
	iss, ok := skema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 3)
	assert.Equal(t, []string{"minLength", "startsWith", "email"}, []string{iss[0].Code, iss[1].Code, iss[2].Code})
	assert.Equal(t, "Name must be at least 5 characters.", iss[0].Message)
	assert.Equal(t, 5, iss[0].Params["args"])
}

func TestBase_ConcurrentRulesKeepDeclarationOrder(t *testing.T) {
	slow := func(d time.Duration) skema.ValidatorFunc {
		return func(skema.Context, any, any, skema.Schema) (bool, error) {
			time.Sleep(d)
			return false, nil
		}
	}
	s := newString(t, skema.Config{Custom: []skema.Custom{
		{Name: "first", Validate: slow(30 * time.Millisecond)},
		{Name: "second", Validate: slow(10 * time.Millisecond)},
		{Name: "third", Validate: slow(0)},
	}})

	for range 5 {
		r := s.SafeParse(context.Background(), "x")
		require.False(t, r.OK())
		require.Len(t, r.Error, 3)
		assert.Equal(t, "first", r.Error[0].Rule)
		assert.Equal(t, "second", r.Error[1].Rule)
		assert.Equal(t, "third", r.Error[2].Rule)
	}
}

func TestBase_OptionalAndNullable(t *testing.T) {
	s := newString(t, skema.Config{Validate: []skema.Step{skema.Use("minLength", 3)}})

	out, err := s.Optional().(*skema.Base).Parse(context.Background(), skema.Undefined)
	require.NoError(t, err)
	assert.True(t, skema.IsUndefined(out))

	out, err = s.Nullable().(*skema.Base).Parse(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = s.Parse(context.Background(), nil)
	require.Error(t, err)

	// optional does not imply nullable
	_, err = s.Optional().(*skema.Base).Parse(context.Background(), nil)
	require.Error(t, err)
}

func TestBase_OptionalCopyLeavesOriginalUntouched(t *testing.T) {
	s := newString(t, skema.Config{})
	opt := s.WithOptional()

	assert.False(t, s.IsOptional())
	assert.True(t, opt.IsOptional())
}

func TestBase_UnknownRuleFailsConstruction(t *testing.T) {
	_, err := skema.NewBase(builtin.Registry(), skema.DataString, skema.Config{
		Validate: []skema.Step{skema.Use("noSuchRule")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, skema.ErrUnknownRule)
	assert.Contains(t, err.Error(), "validate.noSuchRule")

	b, err := skema.NewBase(builtin.Registry(), skema.DataString, skema.Config{
		Validate:          []skema.Step{skema.Use("noSuchRule")},
		AllowUnknownRules: true,
	})
	require.NoError(t, err)
	out, err := b.Parse(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestBase_NilRegistry(t *testing.T) {
	_, err := skema.NewBase(nil, skema.DataString, skema.Config{})
	require.Error(t, err)
	assert.Panics(t, func() { skema.MustBase(nil, skema.DataString, skema.Config{}) })
}

func TestBase_StagesRunInOrder(t *testing.T) {
	var trace []string
	rec := func(name string) skema.TransformFunc {
		return func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
			trace = append(trace, name)
			return v, nil
		}
	}
	s := newString(t, skema.Config{
		Prepare:       []skema.Step{skema.Use("trim")},
		CustomPrepare: []skema.PrepareFunc{skema.PrepareFunc(rec("prepare"))},
		Custom: []skema.Custom{{Validate: func(skema.Context, any, any, skema.Schema) (bool, error) {
			trace = append(trace, "validate")
			return true, nil
		}}},
		Transform:       []skema.Step{skema.Use("toUpperCase")},
		CustomTransform: []skema.TransformFunc{rec("transform")},
	})

	out, err := s.Parse(context.Background(), "  hi ")
	require.NoError(t, err)
	assert.Equal(t, "HI", out)
	assert.Equal(t, []string{"prepare", "validate", "transform"}, trace)
}

func TestBase_TransformIsIdempotentOnOutput(t *testing.T) {
	s := newString(t, skema.Config{
		Prepare:   []skema.Step{skema.Use("trim")},
		Transform: []skema.Step{skema.Use("toLowerCase")},
	})
	first, err := s.Parse(context.Background(), "  MiXeD ")
	require.NoError(t, err)
	second, err := s.Parse(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBase_MessageOverrides(t *testing.T) {
	s := newString(t, skema.Config{
		Label:    "Nickname",
		Validate: []skema.Step{skema.Use("minLength", 2)},
		Messages: map[string]skema.MessageFunc{
			"identity":  skema.Text("need text"),
			"minLength": skema.Sprintf("%s is too short (min %d)", 2),
		},
	})

	_, err := s.Parse(context.Background(), 1)
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "need text", iss[0].Message)

	_, err = s.Parse(context.Background(), "a")
	iss, _ = skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "Nickname is too short (min 2)", iss[0].Message)
}

func TestBase_CustomMessageChain(t *testing.T) {
	fail := func(skema.Context, any, any, skema.Schema) (bool, error) { return false, nil }

	s := newString(t, skema.Config{Custom: []skema.Custom{{Name: "vip", Validate: fail}}})
	r := s.SafeParse(context.Background(), "x")
	require.Len(t, r.Error, 1)
	assert.Equal(t, skema.CodeCustom, r.Error[0].Code)
	assert.Equal(t, "String is invalid.", r.Error[0].Message)

	s = newString(t, skema.Config{
		Custom:   []skema.Custom{{Name: "vip", Validate: fail}},
		Messages: map[string]skema.MessageFunc{"vip": skema.Text("not a vip")},
	})
	r = s.SafeParse(context.Background(), "x")
	assert.Equal(t, "not a vip", r.Error[0].Message)

	s = newString(t, skema.Config{
		Custom:   []skema.Custom{{Name: "vip", Validate: fail, Message: skema.Text("inline wins")}},
		Messages: map[string]skema.MessageFunc{"vip": skema.Text("not a vip")},
	})
	r = s.SafeParse(context.Background(), "x")
	assert.Equal(t, "inline wins", r.Error[0].Message)
}

func TestBase_CustomValidatorReturningIssues(t *testing.T) {
	s := newString(t, skema.Config{Custom: []skema.Custom{{
		Validate: func(c skema.Context, _ any, _ any, _ skema.Schema) (bool, error) {
			return false, skema.Issues{
				{Code: "first", Message: "one"},
				c.Path.Field("inner").Issue("second", "two"),
			}
		},
	}}})

	r := s.SafeParse(context.Background(), "x")
	require.Len(t, r.Error, 2)
	assert.Equal(t, "first", r.Error[0].Code)
	assert.Equal(t, "/inner", r.Error[1].Path.Pointer())
}

func TestBase_PanicBecomesUnhandledIssue(t *testing.T) {
	s := newString(t, skema.Config{Custom: []skema.Custom{{
		Validate: func(skema.Context, any, any, skema.Schema) (bool, error) { panic("boom") },
	}}})

	r := s.SafeParse(context.Background(), "x")
	require.False(t, r.OK())
	require.Len(t, r.Error, 1)
	assert.Equal(t, skema.CodeUnhandledError, r.Error[0].Code)

	var ue *skema.UnhandledError
	require.ErrorAs(t, r.Err(), &ue)
	assert.Contains(t, ue.Err.Error(), "boom")
}

func TestBase_PrepareErrorIsUnhandled(t *testing.T) {
	sentinel := errors.New("cannot prepare")
	s := newString(t, skema.Config{CustomPrepare: []skema.PrepareFunc{
		func(skema.Context, any, any, skema.Schema) (any, error) { return nil, sentinel },
	}})

	_, err := s.Parse(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestBase_ValidatorSeesSchemaAndArgs(t *testing.T) {
	var seen atomic.Value
	reg := builtin.With([]skema.Plugin{{
		DataType: skema.DataString,
		Validate: map[string]skema.Rule{
			"hasPrefix": {
				Validate: func(_ skema.Context, v any, args any, s skema.Schema) (bool, error) {
					seen.Store(s.DataType())
					return strings.HasPrefix(v.(string), args.(string)), nil
				},
				Message: skema.Sprintf("%s needs the prefix"),
			},
		},
	}})
	s := skema.MustBase(reg, skema.DataString, skema.Config{Validate: []skema.Step{skema.Use("hasPrefix", "sk-")}})

	_, err := s.Parse(context.Background(), "sk-123")
	require.NoError(t, err)
	assert.Equal(t, skema.DataString, seen.Load())

	_, err = s.Parse(context.Background(), "nope")
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "String needs the prefix", iss[0].Message)
}

func TestBase_UnregisteredTypeFailsClosed(t *testing.T) {
	reg := skema.NewRegistry(nil)
	s := skema.MustBase(reg, skema.DataString, skema.Config{})
	r := s.SafeParse(context.Background(), "anything")
	require.False(t, r.OK())
	assert.Equal(t, skema.CodeInvalidType, r.Error[0].Code)
	assert.Equal(t, "Validation failed for string.identity", r.Error[0].Message)
}
