package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/skema"
	"github.com/reoring/skema/builtin"
	g "github.com/reoring/skema/dsl"
	"github.com/reoring/skema/middleware"
)

type response struct {
	Issues []struct {
		Path []any  `json:"path"`
		Code string `json:"code"`
	} `json:"issues"`
	Error string `json:"error"`
}

func newHandler(t *testing.T, opt middleware.Options) (http.Handler, *any) {
	t.Helper()
	b := g.New(builtin.Registry())
	s := b.Object(g.Shape(
		g.F("name", b.String(g.Prepare("trim"), g.Rule("minLength", 2))),
		g.F("qty", b.Number(g.Rule("positive"), g.Check("quota", func(c skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
			limit, _ := c.User.(float64)
			return limit == 0 || v.(float64) <= limit, nil
		}, nil))),
	), g.Strict())

	var got any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := middleware.ParsedFromContext(r.Context())
		require.True(t, ok)
		got = v
		w.WriteHeader(http.StatusNoContent)
	})
	return middleware.ValidateJSON(s, opt)(next), &got
}

func do(h http.Handler, body string) (*httptest.ResponseRecorder, response) {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out response
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestValidateJSON_PassesParsedValue(t *testing.T) {
	h, got := newHandler(t, middleware.Options{})
	rec, _ := do(h, `{"name":"  Ann ","qty":2}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, map[string]any{"name": "Ann", "qty": 2.0}, *got)
}

func TestValidateJSON_IssuesAnswer422(t *testing.T) {
	h, _ := newHandler(t, middleware.Options{})
	rec, out := do(h, `{"name":"A","qty":-1,"extra":true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Len(t, out.Issues, 3)
	assert.Equal(t, []any{"name"}, out.Issues[0].Path)
	assert.Equal(t, "positive", out.Issues[1].Code)
	assert.Equal(t, skema.CodeUnknownKey, out.Issues[2].Code)
}

func TestValidateJSON_EmptyBodyIsUndefined(t *testing.T) {
	h, _ := newHandler(t, middleware.Options{})
	rec, out := do(h, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, skema.CodeInvalidType, out.Issues[0].Code)
}

func TestValidateJSON_MalformedAndOversized(t *testing.T) {
	h, _ := newHandler(t, middleware.Options{MaxBodyBytes: 16})

	rec, out := do(h, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, out.Error)

	rec, _ = do(h, `{"name":"a very long name indeed","qty":1}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestValidateJSON_DuplicateKeys(t *testing.T) {
	h, _ := newHandler(t, middleware.Options{RejectDuplicateKeys: true})
	rec, out := do(h, `{"name":"Ann","qty":1,"qty":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, skema.CodeDuplicateKey, out.Issues[0].Code)
	assert.Equal(t, []any{"qty"}, out.Issues[0].Path)

	lenient, _ := newHandler(t, middleware.Options{})
	rec, _ = do(lenient, `{"name":"Ann","qty":1,"qty":2}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestValidateJSON_UserFromRequest(t *testing.T) {
	h, _ := newHandler(t, middleware.Options{User: func(*http.Request) any { return 5.0 }})
	rec, out := do(h, `{"name":"Ann","qty":6}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "custom", out.Issues[0].Code)

	rec, _ = do(h, `{"name":"Ann","qty":5}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestParsedFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := middleware.ParsedFromContext(req.Context())
	assert.False(t, ok)

	ctx := middleware.ContextWithParsed(req.Context(), nil)
	v, ok := middleware.ParsedFromContext(ctx)
	assert.True(t, ok)
	assert.Nil(t, v)
}
