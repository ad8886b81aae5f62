package dsl

import (
	"github.com/reoring/skema"
)

// Builder is the factory surface for schemas bound to one registry.
// Methods panic on configuration errors (typically ErrUnknownRule); the
// package-level New* functions return them instead.
type Builder struct {
	reg *skema.Registry
}

// New returns a Builder over reg.
func New(reg *skema.Registry) *Builder { return &Builder{reg: reg} }

// Registry returns the registry schemas are built against.
func (b *Builder) Registry() *skema.Registry { return b.reg }

func must[S any](s S, err error) S {
	if err != nil {
		panic(err)
	}
	return s
}

// NewPrimitive builds a plain pipeline schema for dt.
func NewPrimitive(reg *skema.Registry, dt skema.DataType, opts ...Option) (*skema.Base, error) {
	return skema.NewBase(reg, dt, configOf(opts))
}

// String builds a string schema.
func (b *Builder) String(opts ...Option) *skema.Base {
	return must(NewPrimitive(b.reg, skema.DataString, opts...))
}

// Number builds a number schema.
func (b *Builder) Number(opts ...Option) *skema.Base {
	return must(NewPrimitive(b.reg, skema.DataNumber, opts...))
}

// Boolean builds a boolean schema.
func (b *Builder) Boolean(opts ...Option) *skema.Base {
	return must(NewPrimitive(b.reg, skema.DataBoolean, opts...))
}

// Date builds a time.Time schema.
func (b *Builder) Date(opts ...Option) *skema.Base {
	return must(NewPrimitive(b.reg, skema.DataDate, opts...))
}

// Any builds a schema that accepts every value.
func (b *Builder) Any(opts ...Option) *skema.Base {
	return must(NewPrimitive(b.reg, skema.DataAny, opts...))
}

// Object builds an object schema over shape.
func (b *Builder) Object(shape []Field, opts ...Option) *ObjectSchema {
	return must(NewObject(b.reg, shape, opts...))
}

// Array builds an array schema over item.
func (b *Builder) Array(item skema.Schema, opts ...Option) *ArraySchema {
	return must(NewArray(b.reg, item, opts...))
}

// Set builds a set schema over item.
func (b *Builder) Set(item skema.Schema, opts ...Option) *SetSchema {
	return must(NewSet(b.reg, item, opts...))
}

// Map builds a record schema. key may be nil to accept every key.
func (b *Builder) Map(key, value skema.Schema, opts ...Option) *MapSchema {
	return must(NewMap(b.reg, key, value, opts...))
}

// Tuple builds a fixed-length tuple schema.
func (b *Builder) Tuple(items []skema.Schema, opts ...Option) *TupleSchema {
	return must(NewTuple(b.reg, items, opts...))
}

// Union builds a first-success-wins union.
func (b *Builder) Union(variants []skema.Schema, opts ...Option) *UnionSchema {
	return must(NewUnion(b.reg, variants, opts...))
}

// Switch builds a discriminated dispatch schema.
func (b *Builder) Switch(sel Selector, cases map[string]skema.Schema, opts ...SwitchOption) *SwitchSchema {
	return must(NewSwitch(b.reg, sel, cases, opts...))
}

// Lazy builds a schema resolved on first use.
func (b *Builder) Lazy(resolve func() skema.Schema, opts ...Option) *LazySchema {
	return must(NewLazy(b.reg, resolve, opts...))
}

// Definitions creates a table of named schemas bound to the builder's registry.
func (b *Builder) Definitions() *Definitions { return NewDefinitions(b.reg) }
