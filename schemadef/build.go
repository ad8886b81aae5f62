package schemadef

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reoring/skema"
	"github.com/reoring/skema/dsl"
)

type rawCustom struct {
	Name    string `yaml:"name"`
	Script  string `yaml:"script"`
	Message string `yaml:"message"`
}

type rawSwitch struct {
	On            string     `yaml:"on"`
	Cases         yaml.Node  `yaml:"cases"`
	Default       *yaml.Node `yaml:"default"`
	FailOnNoMatch bool       `yaml:"failOnNoMatch"`
}

type rawDef struct {
	Type              string            `yaml:"type"`
	Ref               string            `yaml:"$ref"`
	Optional          bool              `yaml:"optional"`
	Nullable          bool              `yaml:"nullable"`
	Label             string            `yaml:"label"`
	Messages          map[string]string `yaml:"messages"`
	Prepare           []yaml.Node       `yaml:"prepare"`
	Validate          []yaml.Node       `yaml:"validate"`
	Transform         []yaml.Node       `yaml:"transform"`
	Custom            []rawCustom       `yaml:"custom"`
	Unknown           string            `yaml:"unknown"`
	Strict            bool              `yaml:"strict"`
	AllowUnknownRules bool              `yaml:"allowUnknownRules"`

	Properties yaml.Node   `yaml:"properties"`
	Items      *yaml.Node  `yaml:"items"`
	Tuple      []yaml.Node `yaml:"tuple"`
	Keys       *yaml.Node  `yaml:"keys"`
	Values     *yaml.Node  `yaml:"values"`
	Variants   []yaml.Node `yaml:"variants"`
	Switch     *rawSwitch  `yaml:"switch"`
}

// build turns one definition node into a schema.
func (l *loader) build(n *yaml.Node) (skema.Schema, error) {
	if n.Kind != yaml.MappingNode {
		return nil, invalid(n, "definition must be a mapping")
	}
	var d rawDef
	if err := n.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidDocument, n.Line, err)
	}
	opts, err := l.options(n, &d)
	if err != nil {
		return nil, err
	}

	if d.Ref != "" {
		ref, err := l.defs.Ref(d.Ref, opts...)
		if err != nil {
			return nil, invalid(n, "%v", err)
		}
		return ref, nil
	}
	switch d.Type {
	case "string", "number", "boolean", "date", "any":
		return dsl.NewPrimitive(l.reg, skema.DataType(d.Type), opts...)
	case "object":
		return l.buildObject(n, &d, opts)
	case "array", "set":
		if d.Items == nil {
			return nil, invalid(n, "%s requires items", d.Type)
		}
		item, err := l.build(d.Items)
		if err != nil {
			return nil, err
		}
		if d.Type == "set" {
			return dsl.NewSet(l.reg, item, opts...)
		}
		return dsl.NewArray(l.reg, item, opts...)
	case "map":
		if d.Values == nil {
			return nil, invalid(n, "map requires values")
		}
		var key skema.Schema
		if d.Keys != nil {
			if key, err = l.build(d.Keys); err != nil {
				return nil, err
			}
		}
		value, err := l.build(d.Values)
		if err != nil {
			return nil, err
		}
		return dsl.NewMap(l.reg, key, value, opts...)
	case "tuple":
		items, err := l.buildList(d.Tuple)
		if err != nil {
			return nil, err
		}
		return dsl.NewTuple(l.reg, items, opts...)
	case "union":
		if len(d.Variants) == 0 {
			return nil, invalid(n, "union requires variants")
		}
		variants, err := l.buildList(d.Variants)
		if err != nil {
			return nil, err
		}
		return dsl.NewUnion(l.reg, variants, opts...)
	case "switch":
		return l.buildSwitch(n, &d, opts)
	case "":
		return nil, invalid(n, "definition needs type or $ref")
	default:
		return nil, invalid(n, "unknown type %q", d.Type)
	}
}

func (l *loader) buildList(nodes []yaml.Node) ([]skema.Schema, error) {
	out := make([]skema.Schema, len(nodes))
	for i := range nodes {
		s, err := l.build(&nodes[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (l *loader) buildObject(n *yaml.Node, d *rawDef, opts []dsl.Option) (skema.Schema, error) {
	var fields []dsl.Field
	if d.Properties.Kind != 0 {
		if d.Properties.Kind != yaml.MappingNode {
			return nil, invalid(&d.Properties, "properties must be a mapping")
		}
		c := d.Properties.Content
		for i := 0; i+1 < len(c); i += 2 {
			s, err := l.build(c[i+1])
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", c[i].Value, err)
			}
			fields = append(fields, dsl.F(c[i].Value, s))
		}
	}
	o, err := dsl.NewObject(l.reg, fields, opts...)
	if err != nil {
		return nil, invalid(n, "%v", err)
	}
	return o, nil
}

func (l *loader) buildSwitch(n *yaml.Node, d *rawDef, opts []dsl.Option) (skema.Schema, error) {
	sw := d.Switch
	if sw == nil || sw.On == "" {
		return nil, invalid(n, "switch requires switch.on")
	}
	cases := map[string]skema.Schema{}
	if sw.Cases.Kind != 0 {
		if sw.Cases.Kind != yaml.MappingNode {
			return nil, invalid(&sw.Cases, "switch.cases must be a mapping")
		}
		c := sw.Cases.Content
		for i := 0; i+1 < len(c); i += 2 {
			s, err := l.build(c[i+1])
			if err != nil {
				return nil, fmt.Errorf("case %q: %w", c[i].Value, err)
			}
			cases[c[i].Value] = s
		}
	}
	sopts := []dsl.SwitchOption{dsl.SwitchOptions(opts...)}
	if sw.Default != nil {
		def, err := l.build(sw.Default)
		if err != nil {
			return nil, fmt.Errorf("switch default: %w", err)
		}
		sopts = append(sopts, dsl.Default(def))
	}
	if sw.FailOnNoMatch {
		sopts = append(sopts, dsl.FailOnNoMatch())
	}
	s, err := dsl.NewSwitch(l.reg, dsl.FieldSelector(sw.On), cases, sopts...)
	if err != nil {
		return nil, invalid(n, "%v", err)
	}
	return s, nil
}
