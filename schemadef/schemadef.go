// Package schemadef builds schema graphs from declarative YAML (or JSON)
// documents.
//
// A document either is a single definition or has the form
//
//	definitions:
//	  node:
//	    type: object
//	    properties:
//	      name: {type: string, validate: [{minLength: 1}]}
//	      children: {type: array, items: {$ref: node}, optional: true}
//	schema:
//	  $ref: node
//
// Property order is preserved. Steps in prepare/validate/transform are either
// a rule name or a single-key map of rule name to arguments; the step name
// "script" runs a JavaScript expression through package script.
package schemadef

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/reoring/skema"
	"github.com/reoring/skema/dsl"
	"github.com/reoring/skema/script"
)

// ErrInvalidDocument wraps every structural problem in a document.
var ErrInvalidDocument = errors.New("schemadef: invalid document")

// Option configures Load.
type Option func(*loader)

// WithScriptEngine sets the engine used for script steps.
func WithScriptEngine(e *script.Engine) Option { return func(l *loader) { l.engine = e } }

// WithDefinitions resolves $ref against an existing table; loaded
// definitions are added to it.
func WithDefinitions(d *dsl.Definitions) Option { return func(l *loader) { l.defs = d } }

type loader struct {
	reg    *skema.Registry
	defs   *dsl.Definitions
	engine *script.Engine
}

// Load parses data and returns the root schema.
func Load(reg *skema.Registry, data []byte, opts ...Option) (skema.Schema, error) {
	s, _, err := LoadWithDefinitions(reg, data, opts...)
	return s, err
}

// LoadWithDefinitions is Load that also returns the definition table. The
// root schema is nil when the document only has definitions.
func LoadWithDefinitions(reg *skema.Registry, data []byte, opts ...Option) (skema.Schema, *dsl.Definitions, error) {
	l := &loader{reg: reg}
	for _, o := range opts {
		o(l)
	}
	if l.defs == nil {
		l.defs = dsl.NewDefinitions(reg)
	}
	if l.engine == nil {
		l.engine = script.Default()
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil, nil, invalid(doc, "document must be a mapping")
	}

	defsNode, schemaNode := lookup(doc, "definitions"), lookup(doc, "schema")
	if defsNode == nil && schemaNode == nil {
		schemaNode = doc
	}
	if defsNode != nil {
		if err := l.loadDefinitions(defsNode); err != nil {
			return nil, nil, err
		}
	}
	var out skema.Schema
	if schemaNode != nil {
		s, err := l.build(schemaNode)
		if err != nil {
			return nil, nil, err
		}
		out = s
	}
	if err := l.defs.Check(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	reg.Logger().Debug("schemadef: document loaded",
		zap.Strings("definitions", l.defs.Names()), zap.Bool("root", out != nil))
	return out, l.defs, nil
}

func (l *loader) loadDefinitions(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return invalid(n, "definitions must be a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		s, err := l.build(n.Content[i+1])
		if err != nil {
			return fmt.Errorf("definition %q: %w", name, err)
		}
		l.defs.Define(name, s)
	}
	return nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func invalid(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrInvalidDocument, n.Line, fmt.Sprintf(format, args...))
}
