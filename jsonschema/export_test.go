package jsonschema_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/goccy/go-json"
	sjs "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/skema"
	"github.com/reoring/skema/builtin"
	g "github.com/reoring/skema/dsl"
	"github.com/reoring/skema/jsonschema"
)

func userSchema(b *g.Builder) *g.ObjectSchema {
	return b.Object(g.Shape(
		g.F("name", b.String(g.Rule("minLength", 2), g.Rule("maxLength", 20), g.Label("Name"))),
		g.F("email", b.String(g.Rule("email"), g.Optional())),
		g.F("age", b.Number(g.Rule("integer"), g.Rule("min", 0), g.Nullable())),
		g.F("role", b.String(g.Rule("oneOf", []any{"admin", "user"}))),
		g.F("tags", b.Set(b.String(), g.Rule("maxSize", 3), g.Optional())),
		g.F("point", b.Tuple([]skema.Schema{b.Number(), b.Number(g.Optional())}, g.Optional())),
	), g.Strict())
}

func TestFrom_ObjectKeywords(t *testing.T) {
	out, err := jsonschema.From(userSchema(g.New(builtin.Registry())))
	require.NoError(t, err)

	assert.Equal(t, jsonschema.Draft, out.SchemaURI)
	assert.Equal(t, "object", out.Type)
	assert.Equal(t, []string{"name", "age", "role"}, out.Required)
	assert.Equal(t, false, out.AdditionalProperties)

	name := out.Properties["name"]
	assert.Equal(t, "Name", name.Title)
	assert.Equal(t, 2, *name.MinLength)
	assert.Equal(t, 20, *name.MaxLength)

	assert.Equal(t, "email", out.Properties["email"].Format)
	assert.Equal(t, []string{"integer", "null"}, out.Properties["age"].Type)
	assert.Equal(t, 0.0, *out.Properties["age"].Minimum)
	assert.Equal(t, []any{"admin", "user"}, out.Properties["role"].Enum)

	tags := out.Properties["tags"]
	assert.True(t, tags.UniqueItems)
	assert.Equal(t, 3, *tags.MaxItems)

	point := out.Properties["point"]
	assert.Len(t, point.PrefixItems, 2)
	assert.Equal(t, 1, *point.MinItems)
	assert.Equal(t, false, point.Items)
}

func TestFrom_RecursiveRefsBecomeDefs(t *testing.T) {
	b := g.New(builtin.Registry())
	defs := b.Definitions()
	defs.Define("node", b.Object(g.Shape(
		g.F("value", b.Number()),
		g.F("next", defs.MustRef("node", g.Nullable())),
	)))
	out, err := jsonschema.From(defs.MustRef("node"))
	require.NoError(t, err)

	assert.Equal(t, "#/$defs/node", out.Ref)
	require.Contains(t, out.Defs, "node")
	next := out.Defs["node"].Properties["next"]
	require.Len(t, next.AnyOf, 2)
	assert.Equal(t, "#/$defs/node", next.AnyOf[0].Ref)
	assert.Equal(t, "null", next.AnyOf[1].Type)
}

func TestFrom_UnionSwitchAndMap(t *testing.T) {
	b := g.New(builtin.Registry())
	u := b.Union([]skema.Schema{b.String(), b.Number(g.Rule("positive"))})
	sw := b.Switch(g.FieldSelector("kind"), map[string]skema.Schema{
		"b": b.Object(g.Shape(g.F("kind", b.String()))),
		"a": b.Object(g.Shape(g.F("kind", b.String()), g.F("x", b.Number()))),
	}, g.Default(b.Any()))
	m := b.Map(b.String(g.Rule("pattern", "^[a-z]+$")), b.Boolean(), g.Rule("maxEntries", 4))

	out, err := jsonschema.From(u)
	require.NoError(t, err)
	require.Len(t, out.AnyOf, 2)
	assert.Equal(t, 0.0, *out.AnyOf[1].ExclusiveMinimum)

	out, err = jsonschema.From(sw)
	require.NoError(t, err)
	require.Len(t, out.AnyOf, 3)
	assert.Contains(t, out.AnyOf[0].Properties, "x", "cases export in key order")

	out, err = jsonschema.From(m)
	require.NoError(t, err)
	assert.Equal(t, "^[a-z]+$", out.PropertyNames.Pattern)
	assert.Equal(t, 4, *out.MaxProperties)
	assert.Equal(t, "boolean", out.AdditionalProperties.(*jsonschema.Schema).Type)
}

// The exported document is a valid 2020-12 schema and agrees with skema on
// structural checks.
func TestMarshal_CompilesAndAgrees(t *testing.T) {
	s := userSchema(g.New(builtin.Registry()))
	raw, err := jsonschema.Marshal(s)
	require.NoError(t, err)

	doc, err := sjs.UnmarshalJSON(bytes.NewReader(raw))
	require.NoError(t, err)
	c := sjs.NewCompiler()
	require.NoError(t, c.AddResource("user.json", doc))
	compiled, err := c.Compile("user.json")
	require.NoError(t, err)

	instances := []string{
		`{"name":"Ann","age":30,"role":"admin"}`,
		`{"name":"Ann","age":null,"role":"user","point":[1]}`,
		`{"name":"A","age":30,"role":"admin"}`,
		`{"name":"Ann","age":1.5,"role":"admin"}`,
		`{"name":"Ann","age":3,"role":"root"}`,
		`{"name":"Ann","age":3,"role":"user","extra":1}`,
		`{"name":"Ann","role":"user"}`,
	}
	for _, in := range instances {
		var v any
		require.NoError(t, json.Unmarshal([]byte(in), &v))
		inst, err := sjs.UnmarshalJSON(bytes.NewReader([]byte(in)))
		require.NoError(t, err)

		ours := s.SafeParse(context.Background(), v).OK()
		theirs := compiled.Validate(inst) == nil
		assert.Equal(t, ours, theirs, in)
	}
}

func TestFrom_Unsupported(t *testing.T) {
	reg := builtin.With([]skema.Plugin{{DataType: "money", Validate: map[string]skema.Rule{
		skema.RuleIdentity: {Validate: func(skema.Context, any, any, skema.Schema) (bool, error) { return true, nil }},
	}}})
	s, err := g.NewPrimitive(reg, "money")
	require.NoError(t, err)
	_, err = jsonschema.From(s)
	assert.ErrorIs(t, err, jsonschema.ErrUnsupported)
}
