// Package dsl provides the structural schema variants and the Builder factory
// surface for skema.
//
// Overview
//   - Builder: New(reg) exposes String/Number/Boolean/Date/Any and the
//     structural constructors. Builder methods panic on configuration errors;
//     the New* functions return them.
//   - Options: Rule/Prepare/Transform reference registry entries by name;
//     Check/Refine/Custom add inline validators; Label/Message tune messages;
//     Optional/Nullable/Strict/Strip/Passthrough set flags.
//   - Variants: ObjectSchema, ArraySchema, SetSchema, MapSchema, TupleSchema,
//     UnionSchema, SwitchSchema, LazySchema. Each wraps a *skema.Base and
//     overrides the three pipeline stages to recurse into children.
//   - Definitions: named schemas referenced through lazy Refs, for recursive
//     and mutually recursive graphs.
//   - Binding: ParseInto[T] decodes parsed output into a Go type.
//
// File layout (roles)
//   - options.go: Option constructors over skema.Config.
//   - primitives.go: Builder and primitive constructors.
//   - object_core.go / object_builder.go: ObjectSchema stages and derivations
//     (Partial/Pick/Omit/Extend/Strict/Strip/Passthrough).
//   - array.go / set.go / map_core.go / tuple.go: collection variants.
//   - union.go / switch.go / lazy.go / definitions.go: dispatch variants.
//   - adapter.go: shared helpers for child issue collection.
//
// Quickstart
//
//	reg := builtin.Registry()
//	b := dsl.New(reg)
//	user := b.Object(dsl.Shape(
//	    dsl.F("name", b.String(dsl.Rule("minLength", 2))),
//	    dsl.F("age", b.Number(dsl.Rule("min", 18))),
//	    dsl.F("tags", b.Array(b.String()).Optional()),
//	))
//	out, err := user.Parse(ctx, map[string]any{"name": "Jo", "age": 20})
package dsl
