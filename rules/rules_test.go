package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/skema"
	"github.com/reoring/skema/builtin"
	g "github.com/reoring/skema/dsl"
	r "github.com/reoring/skema/rules"
)

func order(rs ...r.Rule) skema.Schema {
	b := g.New(builtin.Registry())
	item := b.Object(g.Shape(
		g.F("sku", b.String()),
		g.F("qty", b.Number()),
	))
	return b.Object(g.Shape(
		g.F("status", b.String()),
		g.F("items", b.Array(item)),
		g.F("shippedAt", b.String(g.Optional())),
	), g.Custom(r.Custom("order", rs...)))
}

func issues(t *testing.T, s skema.Schema, v any) skema.Issues {
	t.Helper()
	return skema.SafeParse(context.Background(), s, v).Error
}

func TestIfThen_RequiredWhenConditionHolds(t *testing.T) {
	s := order(r.If("/status", r.Eq, "SHIPPED").Then(r.Required("/shippedAt")))

	iss := issues(t, s, map[string]any{"status": "SHIPPED", "items": []any{}})
	require.Len(t, iss, 1)
	assert.Equal(t, "/shippedAt", iss[0].Path.Pointer())
	assert.Equal(t, skema.CodeRequired, iss[0].Code)

	assert.Empty(t, issues(t, s, map[string]any{"status": "OPEN", "items": []any{}}))
	assert.Empty(t, issues(t, s, map[string]any{"status": "SHIPPED", "items": []any{}, "shippedAt": "now"}))
}

func TestConditional_Composition(t *testing.T) {
	open := r.If("status", r.Eq, "OPEN")
	draft := r.If("status", r.Eq, "DRAFT")
	s := order(open.Or(draft).Then(r.AtLeastOne("/items")))

	iss := issues(t, s, map[string]any{"status": "DRAFT", "items": []any{}})
	require.Len(t, iss, 1)
	assert.Equal(t, r.CodeTooShort, iss[0].Code)
	assert.Equal(t, "/items", iss[0].Path.Pointer())
	assert.Equal(t, 1, iss[0].Params["minItems"])

	assert.Empty(t, issues(t, s, map[string]any{"status": "CLOSED", "items": []any{}}))

	never := order(open.And(draft).Then(r.AtLeastOne("/items")))
	assert.Empty(t, issues(t, never, map[string]any{"status": "OPEN", "items": []any{}}))
}

func TestIf_NumericAndStringOperators(t *testing.T) {
	s := order(r.If("/items/0/qty", r.Gt, 10).Then(r.Required("/shippedAt")))
	big := map[string]any{"status": "OPEN", "items": []any{map[string]any{"sku": "a", "qty": 11.0}}}
	small := map[string]any{"status": "OPEN", "items": []any{map[string]any{"sku": "a", "qty": 10.0}}}
	assert.Len(t, issues(t, s, big), 1)
	assert.Empty(t, issues(t, s, small))

	lex := order(r.If("/status", r.Lt, "M").Then(r.Required("/shippedAt")))
	assert.Len(t, issues(t, lex, map[string]any{"status": "B", "items": []any{}}), 1)
	assert.Empty(t, issues(t, lex, map[string]any{"status": "Z", "items": []any{}}))
}

func TestUniqueBy_ReportsEachDuplicate(t *testing.T) {
	s := order(r.UniqueBy("/items", "sku"))
	iss := issues(t, s, map[string]any{"status": "OPEN", "items": []any{
		map[string]any{"sku": "a", "qty": 1.0},
		map[string]any{"sku": "b", "qty": 1.0},
		map[string]any{"sku": "a", "qty": 2.0},
		map[string]any{"sku": "a", "qty": 3.0},
	}})
	require.Len(t, iss, 2)
	assert.Equal(t, "/items/2/sku", iss[0].Path.Pointer())
	assert.Equal(t, "/items/3/sku", iss[1].Path.Pointer())
	assert.Equal(t, 0, iss[0].Params["first"])
	assert.Equal(t, r.CodeUniqueness, iss[1].Code)
}

func TestAndOr(t *testing.T) {
	fail := func(code string, n int) r.Rule {
		return func(c skema.Context, _ any) skema.Issues {
			out := make(skema.Issues, n)
			for i := range out {
				out[i] = c.Path.Issue(code, code)
			}
			return out
		}
	}
	pass := func(skema.Context, any) skema.Issues { return nil }
	v := map[string]any{"status": "OPEN", "items": []any{}}

	iss := issues(t, order(r.And(fail("a", 1), nil, fail("b", 2))), v)
	require.Len(t, iss, 3)
	assert.Equal(t, "a", iss[0].Code)

	assert.Empty(t, issues(t, order(r.Or(fail("a", 1), pass)), v))

	iss = issues(t, order(r.Or(fail("many", 3), fail("few", 1))), v)
	require.Len(t, iss, 1)
	assert.Equal(t, "few", iss[0].Code)
}

func TestRules_OnStructValues(t *testing.T) {
	type line struct {
		SKU string `json:"sku"`
	}
	type doc struct {
		Lines []line `json:"lines"`
	}
	b := g.New(builtin.Registry())
	s := b.Any(g.Custom(r.Custom("lines", r.UniqueBy("/lines", "/sku"))))

	iss := issues(t, s, doc{Lines: []line{{"x"}, {"x"}}})
	require.Len(t, iss, 1)
	assert.Equal(t, "/lines/1/sku", iss[0].Path.Pointer())
}
