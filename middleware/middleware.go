// Package middleware validates JSON request bodies with a skema schema before
// they reach an http.Handler.
package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/reoring/skema"
)

// ctxKeyParsed is the context key for the parsed body.
type ctxKeyParsed struct{}

type parsed struct{ v any }

// ContextWithParsed attaches a parsed body to the context.
func ContextWithParsed(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyParsed{}, parsed{v})
}

// ParsedFromContext retrieves the parsed body from context.
func ParsedFromContext(ctx context.Context) (any, bool) {
	p, ok := ctx.Value(ctxKeyParsed{}).(parsed)
	return p.v, ok
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues skema.Issues) map[string]any {
	return map[string]any{"issues": issues}
}

// Options tune ValidateJSON.
type Options struct {
	// MaxBodyBytes caps the request body. Zero means 1 MiB.
	MaxBodyBytes int64
	// User derives the user payload passed to validators from the request.
	User func(r *http.Request) any
	// RejectDuplicateKeys answers 422 when the body repeats an object key.
	RejectDuplicateKeys bool
	// Logger receives rejected requests at debug level.
	Logger *zap.Logger
}

const defaultMaxBody = 1 << 20

// ValidateJSON parses the request JSON through s. On success the parsed value
// is stored in the request context; validation failures answer 422 with the
// issue list and malformed bodies answer 400.
func ValidateJSON(s skema.Schema, opt Options) func(http.Handler) http.Handler {
	if opt.MaxBodyBytes <= 0 {
		opt.MaxBodyBytes = defaultMaxBody
	}
	if opt.Logger == nil {
		opt.Logger = s.Registry().Logger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body any = skema.Undefined
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, opt.MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": err.Error()})
					return
				}
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			if len(raw) > 0 && opt.RejectDuplicateKeys {
				dups, err := skema.DuplicateKeys(raw, 0)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
					return
				}
				if len(dups) > 0 {
					writeJSON(w, http.StatusUnprocessableEntity, ErrorPayload(dups))
					return
				}
			}
			if len(raw) > 0 {
				var decoded any
				if err := json.Unmarshal(raw, &decoded); err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
					return
				}
				body = decoded
			}

			var popts []skema.ParseOption
			if opt.User != nil {
				popts = append(popts, skema.WithUser(opt.User(r)))
			}
			res := skema.SafeParse(r.Context(), s, body, popts...)
			if !res.OK() {
				opt.Logger.Debug("middleware: request rejected",
					zap.String("method", r.Method), zap.String("path", r.URL.Path),
					zap.Int("issues", len(res.Error)))
				writeJSON(w, http.StatusUnprocessableEntity, ErrorPayload(res.Error))
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithParsed(r.Context(), res.Data)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
