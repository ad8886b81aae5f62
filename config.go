package skema

import "maps"

// Step references a registry entry by name together with its arguments.
type Step struct {
	Name string
	Args any
}

// Use builds a Step. With no args, Args is nil; with one, it is that value;
// with more, it is the slice.
func Use(name string, args ...any) Step {
	switch len(args) {
	case 0:
		return Step{Name: name}
	case 1:
		return Step{Name: name, Args: args[0]}
	default:
		return Step{Name: name, Args: args}
	}
}

// Custom is an inline validator supplied through Config.
type Custom struct {
	Name     string // optional; selects Config.Messages[Name]
	Validate ValidatorFunc
	Message  MessageFunc
	Args     any
}

// Config is the construction-time description of a schema.
type Config struct {
	Optional bool
	Nullable bool
	Label    string
	// Messages overrides messages per rule name ("identity", rule names, "custom",
	// or a Custom.Name).
	Messages map[string]MessageFunc

	Prepare   []Step
	Validate  []Step
	Transform []Step

	CustomPrepare   []PrepareFunc
	Custom          []Custom
	CustomTransform []TransformFunc

	// Unknown applies to object schemas only.
	Unknown UnknownPolicy
	// AllowUnknownRules drops rule names the registry does not know instead of
	// failing construction.
	AllowUnknownRules bool
}

// Clone returns a copy whose slices and maps can be modified independently.
func (c Config) Clone() Config {
	out := c
	out.Messages = maps.Clone(c.Messages)
	out.Prepare = append([]Step(nil), c.Prepare...)
	out.Validate = append([]Step(nil), c.Validate...)
	out.Transform = append([]Step(nil), c.Transform...)
	out.CustomPrepare = append([]PrepareFunc(nil), c.CustomPrepare...)
	out.Custom = append([]Custom(nil), c.Custom...)
	out.CustomTransform = append([]TransformFunc(nil), c.CustomTransform...)
	return out
}
