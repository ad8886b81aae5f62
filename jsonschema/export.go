package jsonschema

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/goccy/go-json"

	"github.com/reoring/skema"
	"github.com/reoring/skema/dsl"
)

// ErrUnsupported is returned for schema kinds with no JSON Schema form.
var ErrUnsupported = errors.New("jsonschema: unsupported schema")

// From exports s as a JSON Schema document. Lazy references become $defs
// entries so recursive graphs terminate. Preparations, transformations and
// custom validators have no equivalent and are omitted.
func From(s skema.Schema) (*Schema, error) {
	e := &exporter{defs: map[string]*Schema{}, seen: map[string]bool{}}
	out, err := e.schema(s)
	if err != nil {
		return nil, err
	}
	out.SchemaURI = Draft
	if len(e.defs) > 0 {
		out.Defs = e.defs
	}
	return out, nil
}

// Marshal exports s and encodes it as indented JSON.
func Marshal(s skema.Schema) ([]byte, error) {
	out, err := From(s)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(out, "", "  ")
}

type exporter struct {
	defs map[string]*Schema
	seen map[string]bool
}

func (e *exporter) schema(s skema.Schema) (*Schema, error) {
	out, err := e.shape(s)
	if err != nil {
		return nil, err
	}
	cfg := s.Config()
	if out.Title == "" {
		out.Title = cfg.Label
	}
	applyRules(out, s.DataType(), cfg.Validate)
	if cfg.Nullable {
		out = nullable(out)
	}
	return out, nil
}

func (e *exporter) shape(s skema.Schema) (*Schema, error) {
	switch t := s.(type) {
	case *dsl.ObjectSchema:
		out := &Schema{Type: "object", Properties: map[string]*Schema{}}
		for _, f := range t.Fields() {
			p, err := e.schema(f.Schema)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", f.Name, err)
			}
			out.Properties[f.Name] = p
			if !f.Schema.Config().Optional {
				out.Required = append(out.Required, f.Name)
			}
		}
		if t.Unknown() != skema.UnknownPassthrough {
			out.AdditionalProperties = false
		}
		return out, nil
	case *dsl.ArraySchema:
		item, err := e.schema(t.Item())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: item}, nil
	case *dsl.SetSchema:
		item, err := e.schema(t.Item())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: item, UniqueItems: true}, nil
	case *dsl.MapSchema:
		value, err := e.schema(t.Value())
		if err != nil {
			return nil, err
		}
		out := &Schema{Type: "object", AdditionalProperties: value}
		if t.Key() != nil {
			key, err := e.schema(t.Key())
			if err != nil {
				return nil, err
			}
			out.PropertyNames = key
		}
		return out, nil
	case *dsl.TupleSchema:
		out := &Schema{Type: "array", Items: false}
		minItems := 0
		for i, it := range t.Items() {
			p, err := e.schema(it)
			if err != nil {
				return nil, err
			}
			out.PrefixItems = append(out.PrefixItems, p)
			if !it.Config().Optional {
				minItems = i + 1
			}
		}
		out.MinItems = &minItems
		return out, nil
	case *dsl.UnionSchema:
		out := &Schema{}
		for _, v := range t.Variants() {
			p, err := e.schema(v)
			if err != nil {
				return nil, err
			}
			out.AnyOf = append(out.AnyOf, p)
		}
		return out, nil
	case *dsl.SwitchSchema:
		cases := t.Cases()
		keys := make([]string, 0, len(cases))
		for k := range cases {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := &Schema{}
		for _, k := range keys {
			p, err := e.schema(cases[k])
			if err != nil {
				return nil, err
			}
			out.AnyOf = append(out.AnyOf, p)
		}
		if def := t.DefaultCase(); def != nil {
			p, err := e.schema(def)
			if err != nil {
				return nil, err
			}
			out.AnyOf = append(out.AnyOf, p)
		}
		return out, nil
	case *dsl.LazySchema:
		return e.ref(t)
	}

	switch s.DataType() {
	case skema.DataString:
		return &Schema{Type: "string"}, nil
	case skema.DataNumber:
		return &Schema{Type: "number"}, nil
	case skema.DataBoolean:
		return &Schema{Type: "boolean"}, nil
	case skema.DataDate:
		return &Schema{Type: "string", Format: "date-time"}, nil
	case skema.DataAny:
		return &Schema{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, s.DataType())
}

func (e *exporter) ref(l *dsl.LazySchema) (*Schema, error) {
	name := l.Ref()
	target, err := l.Resolve()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return e.schema(target)
	}
	if !e.seen[name] {
		e.seen[name] = true
		def, err := e.schema(target)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", name, err)
		}
		e.defs[name] = def
	}
	return &Schema{Ref: "#/$defs/" + name}, nil
}

func nullable(s *Schema) *Schema {
	if s.Ref != "" || s.Type == nil {
		return &Schema{AnyOf: []*Schema{s, {Type: "null"}}}
	}
	if t, ok := s.Type.(string); ok {
		s.Type = []string{t, "null"}
	}
	return s
}

// applyRules maps the built-in validators that have a keyword equivalent.
func applyRules(out *Schema, dt skema.DataType, steps []skema.Step) {
	for _, st := range steps {
		switch dt {
		case skema.DataString:
			switch st.Name {
			case "minLength":
				out.MinLength = intArg(st.Args)
			case "maxLength":
				out.MaxLength = intArg(st.Args)
			case "length":
				out.MinLength, out.MaxLength = intArg(st.Args), intArg(st.Args)
			case "pattern":
				if p, ok := st.Args.(string); ok {
					out.Pattern = p
				}
			case "email":
				out.Format = "email"
			case "url":
				out.Format = "uri"
			case "uuid":
				out.Format = "uuid"
			case "oneOf":
				if xs, ok := st.Args.([]any); ok {
					out.Enum = slices.Clone(xs)
				} else if xs, ok := st.Args.([]string); ok {
					for _, x := range xs {
						out.Enum = append(out.Enum, x)
					}
				}
			}
		case skema.DataNumber:
			switch st.Name {
			case "min":
				out.Minimum = floatArg(st.Args)
			case "max":
				out.Maximum = floatArg(st.Args)
			case "gt":
				out.ExclusiveMinimum = floatArg(st.Args)
			case "lt":
				out.ExclusiveMaximum = floatArg(st.Args)
			case "positive":
				zero := 0.0
				out.ExclusiveMinimum = &zero
			case "negative":
				zero := 0.0
				out.ExclusiveMaximum = &zero
			case "multipleOf":
				out.MultipleOf = floatArg(st.Args)
			case "integer":
				out.Type = "integer"
			}
		case skema.DataArray, skema.DataSet, skema.DataTuple:
			switch st.Name {
			case "minItems", "minSize":
				out.MinItems = intArg(st.Args)
			case "maxItems", "maxSize":
				out.MaxItems = intArg(st.Args)
			case "length":
				out.MinItems, out.MaxItems = intArg(st.Args), intArg(st.Args)
			case "nonEmpty":
				one := 1
				out.MinItems = &one
			case "unique":
				out.UniqueItems = true
			}
		case skema.DataObject, skema.DataMap:
			switch st.Name {
			case "minKeys", "minEntries":
				out.MinProperties = intArg(st.Args)
			case "maxKeys", "maxEntries":
				out.MaxProperties = intArg(st.Args)
			}
		}
	}
}

func floatArg(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func intArg(v any) *int {
	f := floatArg(v)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
