// Package rules provides cross-field validators for object schemas. Rules see
// the assembled object value and report issues at paths below the object.
package rules

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/reoring/skema"
)

// Issue codes reported by the rules in this package.
const (
	CodeTooShort   = "too_short"
	CodeUniqueness = "uniqueness"
)

// Rule inspects v and returns the issues it finds.
type Rule = func(c skema.Context, v any) skema.Issues

// Custom adapts rules into a custom validator for dsl.Custom or skema.Config.
// The validator fails with the combined issues of all rules.
func Custom(name string, rs ...Rule) skema.Custom {
	r := And(rs...)
	return skema.Custom{
		Name: name,
		Validate: func(c skema.Context, v any, _ any, _ skema.Schema) (bool, error) {
			if iss := r(c, v); len(iss) > 0 {
				return false, iss
			}
			return true, nil
		},
	}
}

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional composes conditional execution of rules.
type Conditional struct {
	path skema.Path
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional comparing the value at a JSON Pointer (e.g. "/status")
// with want.
func If(pointer string, op Op, want any) Conditional {
	return Conditional{path: skema.ParsePointer(normalizePointer(pointer)), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Then attaches rules to run when the condition is satisfied.
func (c Conditional) Then(rs ...Rule) Rule {
	all := And(rs...)
	return func(ctx skema.Context, v any) skema.Issues {
		if !c.eval(v) {
			return nil
		}
		return all(ctx, v)
	}
}

func (c Conditional) eval(v any) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.eval(v) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.eval(v) {
				return true
			}
		}
		return false
	}
	cur, ok := valueAt(v, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Required reports a required issue for every pointer with no value.
func Required(pointers ...string) Rule {
	paths := make([]skema.Path, len(pointers))
	for i, p := range pointers {
		paths[i] = skema.ParsePointer(normalizePointer(p))
	}
	return func(c skema.Context, v any) skema.Issues {
		var out skema.Issues
		for _, p := range paths {
			if cur, ok := valueAt(v, p); !ok || cur == nil {
				out = append(out, c.Path.Append(p...).Issue(skema.CodeRequired, "value is required"))
			}
		}
		return out
	}
}

// AtLeastOne ensures the collection at pointer has at least 1 element.
func AtLeastOne(pointer string) Rule {
	p := skema.ParsePointer(normalizePointer(pointer))
	return func(c skema.Context, v any) skema.Issues {
		val, ok := valueAt(v, p)
		if !ok {
			return nil
		}
		items, ok := asItems(val)
		if !ok {
			// Not a collection; the property schema reports type problems.
			return nil
		}
		if len(items) == 0 {
			return skema.Issues{c.Path.Append(p...).Issue(CodeTooShort, "at least 1 item is required", "minItems", 1)}
		}
		return nil
	}
}

// UniqueBy ensures elements in a collection have unique key values.
// pointer addresses the collection (e.g. "/items"); keyPath is relative to
// each element (e.g. "sku" or "/sku").
// Note: prefer a stable, single-typed key; mixed types may stringify alike.
func UniqueBy(pointer, keyPath string) Rule {
	cp := skema.ParsePointer(normalizePointer(pointer))
	kp := skema.ParsePointer(normalizePointer(keyPath))
	return func(c skema.Context, v any) skema.Issues {
		val, ok := valueAt(v, cp)
		if !ok {
			return nil
		}
		items, ok := asItems(val)
		if !ok {
			return nil
		}
		seen := map[string]int{}
		var out skema.Issues
		for i, elem := range items {
			kv, ok := valueAt(elem, kp)
			if !ok {
				continue
			}
			key := fmt.Sprint(kv)
			if j, dup := seen[key]; dup {
				at := c.Path.Append(cp...).Index(i).Append(kp...)
				out = append(out, at.Issue(CodeUniqueness, "duplicate value", "first", j, "dup", i, "key", key))
			} else {
				seen[key] = i
			}
		}
		return out
	}
}

// And executes all rules and concatenates their issues.
func And(rs ...Rule) Rule {
	return func(c skema.Context, v any) skema.Issues {
		var out skema.Issues
		for _, r := range rs {
			if r == nil {
				continue
			}
			out = append(out, r(c, v)...)
		}
		return out
	}
}

// Or succeeds if any rule returns no issues. When all fail it returns the
// branch with the fewest issues.
func Or(rs ...Rule) Rule {
	return func(c skema.Context, v any) skema.Issues {
		var best skema.Issues
		bestSet := false
		for _, r := range rs {
			if r == nil {
				continue
			}
			iss := r(c, v)
			if len(iss) == 0 {
				return nil
			}
			if !bestSet || len(iss) < len(best) {
				best = iss
				bestSet = true
			}
		}
		return best
	}
}

// ------- helpers -------

func normalizePointer(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

func asItems(v any) ([]any, bool) {
	if s, ok := v.(*skema.Set); ok {
		return s.Items(), true
	}
	return skema.AsSlice(v)
}

// valueAt navigates maps, structs (by skema/json key) and slices.
func valueAt(v any, p skema.Path) (any, bool) {
	cur := reflect.ValueOf(v)
	for _, k := range p {
		if !cur.IsValid() {
			return nil, false
		}
		for cur.Kind() == reflect.Pointer || cur.Kind() == reflect.Interface {
			if cur.IsNil() {
				return nil, false
			}
			cur = cur.Elem()
		}
		seg := k.String()
		switch cur.Kind() {
		case reflect.Struct:
			found := false
			rt := cur.Type()
			for i := 0; i < rt.NumField(); i++ {
				sf := rt.Field(i)
				if sf.IsExported() && skema.ResolveStructKey(sf) == seg {
					cur = cur.Field(i)
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
		case reflect.Map:
			if cur.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			mv := cur.MapIndex(reflect.ValueOf(seg).Convert(cur.Type().Key()))
			if !mv.IsValid() {
				return nil, false
			}
			cur = mv
		case reflect.Slice, reflect.Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= cur.Len() {
				return nil, false
			}
			cur = cur.Index(idx)
		default:
			return nil, false
		}
	}
	if !cur.IsValid() {
		return nil, false
	}
	out := cur.Interface()
	if skema.IsUndefined(out) {
		return nil, false
	}
	return out, true
}

func compare(cur any, op Op, want any) bool {
	a, aok := number(cur)
	b, bok := number(want)
	switch op {
	case Eq:
		if aok && bok {
			return a == b
		}
		return reflect.DeepEqual(cur, want)
	case Ne:
		if aok && bok {
			return a != b
		}
		return !reflect.DeepEqual(cur, want)
	}
	if aok && bok {
		switch op {
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		case Ge:
			return a >= b
		}
	}
	if as, ok := cur.(string); ok {
		if bs, ok := want.(string); ok {
			cmp := strings.Compare(as, bs)
			switch op {
			case Lt:
				return cmp < 0
			case Le:
				return cmp <= 0
			case Gt:
				return cmp > 0
			case Ge:
				return cmp >= 0
			}
		}
	}
	return false
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
