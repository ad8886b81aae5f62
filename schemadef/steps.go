package schemadef

import (
	"gopkg.in/yaml.v3"

	"github.com/reoring/skema/dsl"
)

const scriptStep = "script"

// step is one decoded prepare/validate/transform entry.
type step struct {
	name string
	args any
	node *yaml.Node
}

func parseSteps(nodes []yaml.Node) ([]step, error) {
	out := make([]step, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		switch n.Kind {
		case yaml.ScalarNode:
			out = append(out, step{name: n.Value, node: n})
		case yaml.MappingNode:
			if len(n.Content) != 2 {
				return nil, invalid(n, "step must have exactly one key")
			}
			var args any
			if err := n.Content[1].Decode(&args); err != nil {
				return nil, invalid(n, "step %q: %v", n.Content[0].Value, err)
			}
			out = append(out, step{name: n.Content[0].Value, args: args, node: n})
		default:
			return nil, invalid(n, "step must be a name or a single-key mapping")
		}
	}
	return out, nil
}

func (l *loader) scriptSource(s step) (string, error) {
	src, ok := s.args.(string)
	if !ok || src == "" {
		return "", invalid(s.node, "script step needs a source string")
	}
	return src, nil
}

// options converts the shared definition keys into dsl options.
func (l *loader) options(n *yaml.Node, d *rawDef) ([]dsl.Option, error) {
	var opts []dsl.Option
	if d.Optional {
		opts = append(opts, dsl.Optional())
	}
	if d.Nullable {
		opts = append(opts, dsl.Nullable())
	}
	if d.Label != "" {
		opts = append(opts, dsl.Label(d.Label))
	}
	for rule, text := range d.Messages {
		opts = append(opts, dsl.MessageText(rule, text))
	}
	if d.AllowUnknownRules {
		opts = append(opts, dsl.AllowUnknownRules())
	}
	switch {
	case d.Strict || d.Unknown == "strict":
		opts = append(opts, dsl.Strict())
	case d.Unknown == "strip":
		opts = append(opts, dsl.Strip())
	case d.Unknown == "" || d.Unknown == "passthrough":
	default:
		return nil, invalid(n, "unknown policy %q", d.Unknown)
	}

	prepare, err := parseSteps(d.Prepare)
	if err != nil {
		return nil, err
	}
	for _, s := range prepare {
		if s.name != scriptStep {
			opts = append(opts, dsl.Prepare(s.name, argList(s.args)...))
			continue
		}
		src, err := l.scriptSource(s)
		if err != nil {
			return nil, err
		}
		prog, err := l.engine.Compile(src)
		if err != nil {
			return nil, invalid(s.node, "%v", err)
		}
		opts = append(opts, dsl.PrepareFunc(prog.Prepare()))
	}

	validate, err := parseSteps(d.Validate)
	if err != nil {
		return nil, err
	}
	for _, s := range validate {
		if s.name != scriptStep {
			opts = append(opts, dsl.Rule(s.name, argList(s.args)...))
			continue
		}
		src, err := l.scriptSource(s)
		if err != nil {
			return nil, err
		}
		prog, err := l.engine.Compile(src)
		if err != nil {
			return nil, invalid(s.node, "%v", err)
		}
		opts = append(opts, dsl.Custom(prog.Custom(scriptStep, "")))
	}
	for _, c := range d.Custom {
		if c.Script == "" {
			return nil, invalid(n, "custom %q needs a script", c.Name)
		}
		prog, err := l.engine.Compile(c.Script)
		if err != nil {
			return nil, invalid(n, "custom %q: %v", c.Name, err)
		}
		opts = append(opts, dsl.Custom(prog.Custom(c.Name, c.Message)))
	}

	transform, err := parseSteps(d.Transform)
	if err != nil {
		return nil, err
	}
	for _, s := range transform {
		if s.name != scriptStep {
			opts = append(opts, dsl.Transform(s.name, argList(s.args)...))
			continue
		}
		src, err := l.scriptSource(s)
		if err != nil {
			return nil, err
		}
		prog, err := l.engine.Compile(src)
		if err != nil {
			return nil, invalid(s.node, "%v", err)
		}
		opts = append(opts, dsl.TransformFunc(prog.Transform()))
	}
	return opts, nil
}

// argList keeps a decoded argument as a single value so skema.Use stores it
// unchanged (a YAML list stays one []any argument).
func argList(args any) []any {
	if args == nil {
		return nil
	}
	return []any{args}
}

