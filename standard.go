package skema

import "context"

// StandardVendor identifies this library to standard-schema consumers.
const StandardVendor = "skema"

// StandardPathSegment wraps one path key as {key}.
type StandardPathSegment struct {
	Key any `json:"key"`
}

// StandardIssue is the interop representation of an Issue.
type StandardIssue struct {
	Message string                `json:"message"`
	Path    []StandardPathSegment `json:"path,omitempty"`
}

// StandardResult holds either Value or Issues.
type StandardResult struct {
	Value  any             `json:"value,omitempty"`
	Issues []StandardIssue `json:"issues,omitempty"`
}

// StandardSchema is the introspectable validation entry point used by
// external standard-schema consumers.
type StandardSchema struct {
	Version int    `json:"version"`
	Vendor  string `json:"vendor"`
	schema  Schema
}

// Standard exposes s through the standard-schema contract.
func Standard(s Schema) *StandardSchema {
	return &StandardSchema{Version: 1, Vendor: StandardVendor, schema: s}
}

// Validate runs the full pipeline and converts issues to the interop form.
func (ss *StandardSchema) Validate(ctx context.Context, v any) StandardResult {
	r := SafeParse(ctx, ss.schema, v)
	if r.OK() {
		return StandardResult{Value: r.Data}
	}
	out := make([]StandardIssue, 0, len(r.Error))
	for _, it := range r.Error {
		si := StandardIssue{Message: it.Message}
		for _, k := range it.Path {
			si.Path = append(si.Path, StandardPathSegment{Key: k.Value()})
		}
		out = append(out, si)
	}
	return StandardResult{Issues: out}
}
