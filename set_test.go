package skema_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/skema"
	"github.com/reoring/skema/builtin"
)

func TestSet_CollapsesEqualMembers(t *testing.T) {
	s := skema.NewSet("a", "b", "a", 1.0, 1.0)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []any{"a", "b", 1.0}, s.Items())

	assert.True(t, s.Add(map[string]any{"k": 1}))
	assert.False(t, s.Add(map[string]any{"k": 1}))
	assert.True(t, s.Has(map[string]any{"k": 1}))
	assert.False(t, s.Has("z"))

	var nilSet *skema.Set
	assert.Equal(t, 0, nilSet.Len())
	assert.Nil(t, nilSet.Items())
}

func TestSet_StructWithUnhashableField(t *testing.T) {
	type wrapper struct{ A any }
	s := skema.NewSet()
	require.NotPanics(t, func() {
		assert.True(t, s.Add(wrapper{A: []any{1.0}}))
		assert.False(t, s.Add(wrapper{A: []any{1.0}}))
	})
	assert.True(t, s.Has(wrapper{A: []any{1.0}}))
	assert.False(t, s.Has(wrapper{A: []any{2.0}}))
	assert.True(t, s.Add(wrapper{A: "x"}))
	assert.Equal(t, 2, s.Len())
}

func TestDuplicateKeys(t *testing.T) {
	iss, err := skema.DuplicateKeys([]byte(`{"a":1,"b":{"c":1,"c":2},"list":[{"x":1},{"x":1,"x":2}],"a":3}`), 0)
	require.NoError(t, err)
	require.Len(t, iss, 3)
	assert.Equal(t, "/b/c", iss[0].Path.Pointer())
	assert.Equal(t, "/list/1/x", iss[1].Path.Pointer())
	assert.Equal(t, "/a", iss[2].Path.Pointer())
	assert.Equal(t, skema.CodeDuplicateKey, iss[0].Code)

	iss, err = skema.DuplicateKeys([]byte(`{"a":1,"a":2,"b":1,"b":2}`), 1)
	require.NoError(t, err)
	assert.Len(t, iss, 1)

	iss, err = skema.DuplicateKeys([]byte(`{"a":1}`), 0)
	require.NoError(t, err)
	assert.Empty(t, iss)

	_, err = skema.DuplicateKeys([]byte(`{"a":`), 0)
	assert.Error(t, err)
}

func TestStandard_Validate(t *testing.T) {
	s := skema.MustBase(builtin.Registry(), skema.DataString, skema.Config{Validate: []skema.Step{skema.Use("minLength", 2)}})
	std := skema.Standard(s)
	assert.Equal(t, 1, std.Version)
	assert.Equal(t, "skema", std.Vendor)

	ok := std.Validate(context.Background(), "hello")
	assert.Equal(t, "hello", ok.Value)
	assert.Empty(t, ok.Issues)

	bad := std.Validate(context.Background(), "h")
	require.Len(t, bad.Issues, 1)
	assert.Equal(t, "String must be at least 2 characters.", bad.Issues[0].Message)
	assert.Empty(t, bad.Issues[0].Path)
}

type clock interface{ Now() time.Time }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func TestService_Injection(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := skema.MustBase(builtin.Registry(), skema.DataDate, skema.Config{Custom: []skema.Custom{{
		Validate: func(c skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
			clk, err := skema.RequireService[clock](c)
			if err != nil {
				return false, err
			}
			return v.(time.Time).Before(clk.Now()), nil
		},
	}}})

	ctx := skema.WithService[clock](context.Background(), fixedClock{now})
	r := s.SafeParse(ctx, now.Add(-time.Hour))
	assert.True(t, r.OK())
	r = s.SafeParse(ctx, now.Add(time.Hour))
	assert.False(t, r.OK())

	r = s.SafeParse(context.Background(), now)
	require.False(t, r.OK())
	assert.Equal(t, skema.CodeUnhandledError, r.Error[0].Code)
	assert.ErrorIs(t, r.Err(), skema.ErrServiceMissing)
}

func TestStructToMap(t *testing.T) {
	type inner struct {
		When time.Time `json:"when"`
	}
	type outer struct {
		Name    string `json:"name"`
		Skipped string `json:"-"`
		Alias   int    `skema:"name=alias" json:"ignored"`
		Inner   inner  `json:"inner"`
		private int
	}
	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	m, ok := skema.StructToMap(outer{Name: "n", Skipped: "x", Alias: 3, Inner: inner{When: when}, private: 1})
	require.True(t, ok)
	assert.Equal(t, "n", m["name"])
	assert.Equal(t, 3, m["alias"])
	assert.NotContains(t, m, "Skipped")
	assert.NotContains(t, m, "private")
	assert.Equal(t, map[string]any{"when": when}, m["inner"])

	field, _ := reflect.TypeOf(outer{}).FieldByName("Alias")
	assert.Equal(t, "alias", skema.ResolveStructKey(field))
}
