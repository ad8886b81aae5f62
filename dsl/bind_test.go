package dsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/skema"
	g "github.com/reoring/skema/dsl"
)

type account struct {
	Email string   `json:"email"`
	Age   int      `json:"age"`
	Tags  []string `json:"tags"`
	Nick  *string  `json:"nick,omitempty"`
}

func TestParseInto_BindsByJSONTags(t *testing.T) {
	b := builder()
	s := b.Object(g.Shape(
		g.F("email", b.String(g.Prepare("trim"), g.Transform("toLowerCase"), g.Rule("email"))),
		g.F("age", b.Number(g.Prepare("coerce"), g.Rule("integer"))),
		g.F("tags", b.Set(b.String(), g.Prepare("fromArray"), g.Optional())),
		g.F("nick", b.String(g.Optional())),
	), g.Strip())

	acc, err := g.ParseInto[account](context.Background(), s, map[string]any{
		"email": "  Ann@Example.COM ",
		"age":   "42",
		"tags":  []any{"a", "b", "a"},
		"nick":  skema.Undefined,
		"extra": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", acc.Email)
	assert.Equal(t, 42, acc.Age)
	assert.Equal(t, []string{"a", "b"}, acc.Tags)
	assert.Nil(t, acc.Nick)

	_, err = g.ParseInto[account](context.Background(), s, map[string]any{"email": "nope", "age": 1})
	iss, ok := skema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "/email", iss[0].Path.Pointer())
}

func TestDecode_PassesMatchingTypes(t *testing.T) {
	v, err := g.Decode[string]("already")
	require.NoError(t, err)
	assert.Equal(t, "already", v)

	_, err = g.Decode[int]("not a number")
	assert.Error(t, err)
}
