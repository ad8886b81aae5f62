package dsl

import (
	"slices"

	"github.com/reoring/skema"
)

// Field is one declared object property.
type Field struct {
	Name   string
	Schema skema.Schema
}

// F declares a property.
func F(name string, s skema.Schema) Field { return Field{Name: name, Schema: s} }

// Shape collects properties in declaration order.
func Shape(fields ...Field) []Field { return fields }

// derive rebuilds o with new properties and an optional config patch. The
// config was already accepted once, so rebuilding cannot fail on rules.
func (o *ObjectSchema) derive(fields []Field, patch func(*skema.Config)) *ObjectSchema {
	base := o.base
	if patch != nil {
		base = must(o.base.Rebuild(patch))
	}
	return must(newObject(base, fields))
}

// Partial marks every property optional.
func (o *ObjectSchema) Partial() *ObjectSchema {
	fields := make([]Field, len(o.fields))
	for i, f := range o.fields {
		fields[i] = Field{Name: f.Name, Schema: f.Schema.Optional()}
	}
	return o.derive(fields, nil)
}

// Pick keeps only the named properties and closes the shape.
func (o *ObjectSchema) Pick(names ...string) *ObjectSchema {
	var fields []Field
	for _, f := range o.fields {
		if slices.Contains(names, f.Name) {
			fields = append(fields, f)
		}
	}
	return o.derive(fields, func(c *skema.Config) { c.Unknown = skema.UnknownStrict })
}

// Omit drops the named properties and closes the shape.
func (o *ObjectSchema) Omit(names ...string) *ObjectSchema {
	var fields []Field
	for _, f := range o.fields {
		if !slices.Contains(names, f.Name) {
			fields = append(fields, f)
		}
	}
	return o.derive(fields, func(c *skema.Config) { c.Unknown = skema.UnknownStrict })
}

// Extend adds properties; a property with an existing name replaces it in place.
func (o *ObjectSchema) Extend(more ...Field) *ObjectSchema {
	fields := append([]Field(nil), o.fields...)
	for _, f := range more {
		if i, ok := o.index[f.Name]; ok {
			fields[i] = f
			continue
		}
		fields = append(fields, f)
	}
	return o.derive(fields, nil)
}

// Strict returns a copy that rejects undeclared keys.
func (o *ObjectSchema) Strict() *ObjectSchema { return o.withUnknown(skema.UnknownStrict) }

// Strip returns a copy that drops undeclared keys.
func (o *ObjectSchema) Strip() *ObjectSchema { return o.withUnknown(skema.UnknownStrip) }

// Passthrough returns a copy that copies undeclared keys to the output.
func (o *ObjectSchema) Passthrough() *ObjectSchema { return o.withUnknown(skema.UnknownPassthrough) }

func (o *ObjectSchema) withUnknown(p skema.UnknownPolicy) *ObjectSchema {
	return o.derive(o.fields, func(c *skema.Config) { c.Unknown = p })
}
