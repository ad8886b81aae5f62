package schemadef_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/skema"
	"github.com/reoring/skema/builtin"
	"github.com/reoring/skema/dsl"
	"github.com/reoring/skema/schemadef"
)

const treeDoc = `
definitions:
  node:
    type: object
    strict: true
    properties:
      name:
        type: string
        prepare: [trim]
        validate:
          - minLength: 1
      children:
        type: array
        optional: true
        items: {$ref: node}
schema:
  $ref: node
`

func pointers(iss skema.Issues) []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Path.Pointer()
	}
	return out
}

func TestLoad_RecursiveDefinitions(t *testing.T) {
	s, defs, err := schemadef.LoadWithDefinitions(builtin.Registry(), []byte(treeDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"node"}, defs.Names())

	out, err := skema.Parse(context.Background(), s, map[string]any{
		"name":     " root ",
		"children": []any{map[string]any{"name": "leaf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "root", out.(map[string]any)["name"])

	r := skema.SafeParse(context.Background(), s, map[string]any{
		"name":     "root",
		"children": []any{map[string]any{"name": "  ", "extra": true}},
	})
	assert.Equal(t, []string{"/children/0/name", "/children/0/extra"}, pointers(r.Error))
}

func TestLoad_PropertyOrderPreserved(t *testing.T) {
	doc := `
type: object
properties:
  zeta: {type: string}
  alpha: {type: number}
  mid: {type: boolean}
`
	s, err := schemadef.Load(builtin.Registry(), []byte(doc))
	require.NoError(t, err)
	obj, ok := s.(*dsl.ObjectSchema)
	require.True(t, ok)
	var names []string
	for _, f := range obj.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)

	r := skema.SafeParse(context.Background(), s, map[string]any{})
	assert.Equal(t, []string{"/zeta", "/alpha", "/mid"}, pointers(r.Error))
}

func TestLoad_StepsMessagesAndScripts(t *testing.T) {
	doc := `
type: object
properties:
  code:
    type: string
    label: Code
    messages:
      pattern: use upper-case letters
    prepare:
      - script: "typeof value === 'number' ? String(value) : value"
    validate:
      - minLength: 2
      - pattern: "^[A-Z0-9]+$"
    transform:
      - script: "value + '!'"
  tags:
    type: set
    prepare: [fromArray]
    items: {type: string}
    validate:
      - maxSize: 2
  total:
    type: number
    custom:
      - name: even
        script: "value % 2 === 0"
        message: total must be even
`
	s, err := schemadef.Load(builtin.Registry(), []byte(doc))
	require.NoError(t, err)

	out, err := skema.Parse(context.Background(), s, map[string]any{"code": 42.0, "tags": []any{"a", "a"}, "total": 4.0})
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "42!", m["code"])
	assert.Equal(t, 1, m["tags"].(*skema.Set).Len())

	r := skema.SafeParse(context.Background(), s, map[string]any{"code": "a", "tags": []any{"a", "b", "c"}, "total": 3.0})
	require.Len(t, r.Error, 4)
	assert.Equal(t, "Code must be at least 2 characters.", r.Error[0].Message)
	assert.Equal(t, "use upper-case letters", r.Error[1].Message)
	assert.Equal(t, "/tags", r.Error[2].Path.Pointer())
	assert.Equal(t, "total must be even", r.Error[3].Message)
}

func TestLoad_CollectionsUnionSwitch(t *testing.T) {
	doc := `
definitions:
  circle:
    type: object
    properties:
      kind: {type: string}
      r: {type: number, validate: [positive]}
  square:
    type: object
    properties:
      kind: {type: string}
      side: {type: number}
schema:
  type: object
  properties:
    shape:
      type: switch
      switch:
        on: kind
        cases:
          circle: {$ref: circle}
          square: {$ref: square}
        failOnNoMatch: true
    id:
      type: union
      variants:
        - {type: number, validate: [integer]}
        - {type: string, validate: [uuid]}
    point:
      type: tuple
      tuple:
        - {type: number}
        - {type: number}
    labels:
      type: map
      keys: {type: string, validate: [{minLength: 2}]}
      values: {type: string}
      optional: true
`
	s, err := schemadef.Load(builtin.Registry(), []byte(doc))
	require.NoError(t, err)

	_, err = skema.Parse(context.Background(), s, map[string]any{
		"shape": map[string]any{"kind": "circle", "r": 1.0},
		"id":    7.0,
		"point": []any{1.0, 2.0},
	})
	require.NoError(t, err)

	r := skema.SafeParse(context.Background(), s, map[string]any{
		"shape":  map[string]any{"kind": "hexagon"},
		"id":     "nope",
		"point":  []any{1.0},
		"labels": map[string]any{"x": "y"},
	})
	require.False(t, r.OK())
	codes := map[string]string{}
	for _, it := range r.Error {
		if _, seen := codes[it.Path.Pointer()]; !seen {
			codes[it.Path.Pointer()] = it.Code
		}
	}
	assert.Equal(t, skema.CodeNoSwitchMatch, codes["/shape"])
	assert.Equal(t, skema.CodeInvalidType, codes["/id"])
	assert.Equal(t, skema.CodeTupleLength, codes["/point"])
	assert.Equal(t, "minLength", codes["/labels/x"])
}

func TestLoad_SharedDefinitions(t *testing.T) {
	reg := builtin.Registry()
	defs := dsl.NewDefinitions(reg)
	_, err := schemadef.Load(reg, []byte("definitions:\n  email: {type: string, validate: [email]}\n"), schemadef.WithDefinitions(defs))
	require.NoError(t, err)

	s, err := schemadef.Load(reg, []byte("type: array\nitems: {$ref: email}\n"), schemadef.WithDefinitions(defs))
	require.NoError(t, err)
	r := skema.SafeParse(context.Background(), s, []any{"a@b.co", "bad"})
	assert.Equal(t, []string{"/1"}, pointers(r.Error))
}

func TestLoad_InvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"not yaml":         "type: [",
		"scalar root":      "just a string",
		"missing type":     "label: x",
		"unknown type":     "type: integer",
		"array no items":   "type: array",
		"bad unknown":      "type: object\nunknown: maybe",
		"two-key step":     "type: string\nvalidate:\n  - {minLength: 1, maxLength: 2}",
		"script no source": "type: string\nvalidate:\n  - script: ''",
		"script syntax":    "type: string\nvalidate:\n  - script: 'value ==='",
		"custom no script": "type: string\ncustom:\n  - name: x",
		"switch no on":     "type: switch\nswitch: {cases: {}}",
		"missing ref":      "type: array\nitems: {$ref: nowhere}",
		"switch steps":     "type: switch\nswitch: {on: kind}\nvalidate: [required]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := schemadef.Load(builtin.Registry(), []byte(doc))
			assert.ErrorIs(t, err, schemadef.ErrInvalidDocument)
		})
	}

	_, err := schemadef.Load(builtin.Registry(), []byte("type: string\nvalidate: [shiny]"))
	assert.ErrorIs(t, err, skema.ErrUnknownRule)

	_, err = schemadef.Load(builtin.Registry(), []byte("type: string\nallowUnknownRules: true\nvalidate: [shiny]"))
	assert.NoError(t, err)
}
