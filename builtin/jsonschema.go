package builtin

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/reoring/skema"
)

const jsonSchemaRuleName = "jsonSchema"

var (
	compiledSchemas sync.Map // schema JSON -> *jsonschema.Schema
	printer         = message.NewPrinter(language.English)
)

var jsonSchemaRule = skema.Rule{
	Validate: validateJSONSchema,
	Message:  skema.Sprintf("%s does not match the JSON Schema."),
}

// compileJSONSchema compiles args (a JSON text, []byte or decoded document).
// Compiled schemas are cached by their JSON encoding.
func compileJSONSchema(args any) (*jsonschema.Schema, error) {
	var raw []byte
	switch t := args.(type) {
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	default:
		b, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("builtin: encode json schema: %w", err)
		}
		raw = b
	}
	key := string(raw)
	if s, ok := compiledSchemas.Load(key); ok {
		return s.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("builtin: invalid json schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("builtin: add json schema resource: %w", err)
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("builtin: compile json schema: %w", err)
	}
	compiledSchemas.Store(key, sch)
	return sch, nil
}

// toJSONInstance converts v into the JSON data model the compiler validates.
func toJSONInstance(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

// validateJSONSchema reports every leaf violation as its own issue at the
// instance location below the current path.
func validateJSONSchema(c skema.Context, v any, args any, _ skema.Schema) (bool, error) {
	sch, err := compileJSONSchema(args)
	if err != nil {
		return false, err
	}
	inst, err := toJSONInstance(v)
	if err != nil {
		return false, nil
	}
	err = sch.Validate(inst)
	if err == nil {
		return true, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return false, err
	}
	var iss skema.Issues
	collectSchemaErrors(c.Path, verr, &iss)
	if len(iss) == 0 {
		return false, nil
	}
	return false, iss
}

func collectSchemaErrors(base skema.Path, verr *jsonschema.ValidationError, out *skema.Issues) {
	if verr == nil {
		return
	}
	if len(verr.Causes) == 0 {
		p := base
		for _, seg := range verr.InstanceLocation {
			if i, err := strconv.Atoi(seg); err == nil {
				p = p.Index(i)
				continue
			}
			p = p.Field(seg)
		}
		*out = append(*out, skema.Issue{
			Path:    p,
			Code:    jsonSchemaRuleName,
			Message: verr.ErrorKind.LocalizedString(printer),
			Rule:    jsonSchemaRuleName,
			Params:  map[string]any{"keyword": verr.ErrorKind.KeywordPath()},
		})
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaErrors(base, cause, out)
	}
}
