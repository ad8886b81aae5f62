package builtin

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reoring/skema"
)

var (
	tagValidator     = validator.New()
	patternCache     sync.Map // string -> *regexp.Regexp
	supportedFormats = []string{"email", "url", "uri", "hostname", "ip", "ipv4", "ipv6", "cidr", "mac", "datetime", "e164", "base64", "alphanum", "numeric"}
)

func stringLength(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	return float64(utf8.RuneCountInString(s)), true
}

func compilePattern(args any) (*regexp.Regexp, error) {
	if re, ok := args.(*regexp.Regexp); ok {
		return re, nil
	}
	src := toString(args)
	if re, ok := patternCache.Load(src); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("builtin: pattern %q: %w", src, err)
	}
	patternCache.Store(src, re)
	return re, nil
}

func stringPredicate(pred func(s string, args any) (bool, error)) skema.ValidatorFunc {
	return func(_ skema.Context, v any, args any, _ skema.Schema) (bool, error) {
		s, ok := v.(string)
		if !ok {
			return false, nil
		}
		return pred(s, args)
	}
}

// checkFormat validates s with the validator/v10 tag of the same name.
func checkFormat(s, format string) (bool, error) {
	tag := format
	switch format {
	case "url", "uri":
		tag = "url"
	case "datetime":
		_, err := time.Parse(time.RFC3339, s)
		return err == nil, nil
	case "uuid":
		return uuid.Validate(s) == nil, nil
	case "json":
		return json.Valid([]byte(s)), nil
	}
	if !slices.Contains(supportedFormats, format) {
		return false, fmt.Errorf("builtin: unsupported string format %q", format)
	}
	return tagValidator.Var(s, tag) == nil, nil
}

func formatRule(format string) skema.ValidatorFunc {
	return stringPredicate(func(s string, _ any) (bool, error) { return checkFormat(s, format) })
}

func stringStep(fn func(string) string) func(skema.Context, any, any, skema.Schema) (any, error) {
	return func(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
		if s, ok := v.(string); ok {
			return fn(s), nil
		}
		return v, nil
	}
}

func toUpper(s string) string { return cases.Upper(language.Und).String(s) }
func toLower(s string) string { return cases.Lower(language.Und).String(s) }

// capitalize upper-cases the first rune and leaves the rest untouched.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return toUpper(string(r)) + s[size:]
}

func titleCase(s string) string { return cases.Title(language.Und).String(s) }

// parseJSONString decodes a JSON text; anything that fails to decode is left as is.
func parseJSONString(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return v, nil
	}
	return out, nil
}

func coerceString(_ skema.Context, v any, _ any, _ skema.Schema) (any, error) {
	switch t := v.(type) {
	case string, nil:
		return v, nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case bool:
		return fmt.Sprint(t), nil
	}
	if isNumber(v) {
		return fmt.Sprint(v), nil
	}
	return v, nil
}

func stringPlugin() skema.Plugin {
	return skema.Plugin{
		DataType: skema.DataString,
		Prepare: map[string]skema.PrepareFunc{
			"trim":        stringStep(strings.TrimSpace),
			"toLowerCase": stringStep(toLower),
			"toUpperCase": stringStep(toUpper),
			"coerce":      coerceString,
		},
		Validate: map[string]skema.Rule{
			skema.RuleIdentity: {
				Validate: func(_ skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
					_, ok := v.(string)
					return ok, nil
				},
				Message: skema.Sprintf("%s must be a string."),
			},
			skema.RuleCustom: customMessage,
			"minLength": {
				Validate: numberRule(stringLength, atLeast),
				Message:  argMessage("%s must be at least %v characters."),
			},
			"maxLength": {
				Validate: numberRule(stringLength, atMost),
				Message:  argMessage("%s must be at most %v characters."),
			},
			"length": {
				Validate: numberRule(stringLength, equal),
				Message:  argMessage("%s must be exactly %v characters."),
			},
			"pattern": {
				Validate: stringPredicate(func(s string, args any) (bool, error) {
					re, err := compilePattern(args)
					if err != nil {
						return false, err
					}
					return re.MatchString(s), nil
				}),
				Message: skema.Sprintf("%s has an invalid format."),
			},
			"startsWith": {
				Validate: stringPredicate(func(s string, args any) (bool, error) { return strings.HasPrefix(s, toString(args)), nil }),
				Message:  argMessage("%s must start with %q."),
			},
			"endsWith": {
				Validate: stringPredicate(func(s string, args any) (bool, error) { return strings.HasSuffix(s, toString(args)), nil }),
				Message:  argMessage("%s must end with %q."),
			},
			"includes": {
				Validate: stringPredicate(func(s string, args any) (bool, error) { return strings.Contains(s, toString(args)), nil }),
				Message:  argMessage("%s must include %q."),
			},
			"oneOf": {
				Validate: stringPredicate(func(s string, args any) (bool, error) { return slices.Contains(toStrings(args), s), nil }),
				Message: func(m skema.MessageContext) string {
					return fmt.Sprintf("%s must be one of: %s.", m.Label, strings.Join(toStrings(m.Args), ", "))
				},
			},
			"email": {
				Validate: formatRule("email"),
				Message:  skema.Sprintf("%s must be a valid email address."),
			},
			"url": {
				Validate: formatRule("url"),
				Message:  skema.Sprintf("%s must be a valid URL."),
			},
			"uuid": {
				Validate: formatRule("uuid"),
				Message:  skema.Sprintf("%s must be a valid UUID."),
			},
			"json": {
				Validate: formatRule("json"),
				Message:  skema.Sprintf("%s must be valid JSON."),
			},
			"format": {
				Validate: stringPredicate(func(s string, args any) (bool, error) { return checkFormat(s, toString(args)) }),
				Message:  argMessage("%s must match the %v format."),
			},
		},
		Transform: map[string]skema.TransformFunc{
			"trim":        stringStep(strings.TrimSpace),
			"toLowerCase": stringStep(toLower),
			"toUpperCase": stringStep(toUpper),
			"capitalize":  stringStep(capitalize),
			"title":       stringStep(titleCase),
			"parseJSON":   parseJSONString,
		},
	}
}
