// Package skema provides:
//
// - A prepare → validate → transform pipeline over untyped Go values (Base)
// - A plugin Registry of validators, preparations and transformations per data type
// - A stable error model via Issues (path, code, message) with multi-issue reporting
// - SafeParse, which never returns raw errors, and a standard-schema interop entry point
//
// Design policy:
// - Keep the engine and public contracts in the root package.
// - Place structural variants and the builder under dsl/, rule tables under builtin/,
//   declarative documents under schemadef/, JSON Schema export under jsonschema/,
//   script validators under script/ and HTTP body validation under middleware/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	reg := builtin.Registry()
//	b := dsl.New(reg)
//	user := b.Object(dsl.Shape(
//		dsl.F("name", b.String(dsl.Rule("minLength", 2))),
//		dsl.F("age", b.Number(dsl.Rule("min", 18))),
//	))
//	r := skema.SafeParse(ctx, user, input)
//	if !r.OK() {
//		for _, it := range r.Error { fmt.Println(it.Path, it.Message) }
//	}
package skema
