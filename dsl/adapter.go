package dsl

import (
	"github.com/reoring/skema"
	"github.com/reoring/skema/i18n"
)

// isOptional reports whether a missing key may be omitted for s.
func isOptional(s skema.Schema) bool { return s.Config().Optional }

// childResult classifies a child stage error: validation issues are rebased
// under the child path and returned; anything else is passed up unchanged.
func childResult(err error, at skema.Path) (skema.Issues, error) {
	iss, uerr := skema.Classify(err)
	if uerr != nil {
		return nil, uerr
	}
	return skema.Rebase(iss, at), nil
}

// flatten concatenates per-index issue slots in index order.
func flatten(slots []skema.Issues) skema.Issues {
	var out skema.Issues
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}

// translated produces a message from the i18n table at resolution time.
func translated(code string, data map[string]string) skema.MessageFunc {
	return func(skema.MessageContext) string { return i18n.T(code, data) }
}

// structural builds an issue for a structural failure at c.Path, letting the
// node's config override the message by code.
func structural(b *skema.Base, c skema.Context, v any, code string, data map[string]string, kv ...any) skema.Issue {
	msg := b.Message(c, v, code, translated(code, data))
	return c.Issue(code, msg, kv...)
}

// validateChildren validates items[i] at path key(i) concurrently and returns
// outputs slotted by index together with the issues in index order.
func validateChildren(b *skema.Base, c skema.Context, n int, key func(i int) skema.PathKey, value func(i int) any, schema func(i int) skema.Schema) ([]any, skema.Issues, error) {
	outs := make([]any, n)
	slots := make([]skema.Issues, n)
	err := b.Each(c, n, func(c skema.Context, i int) error {
		v := value(i)
		cc := c.Child(key(i), v)
		out, err := schema(i).Validate(cc, v)
		if err != nil {
			iss, uerr := childResult(err, cc.Path)
			if uerr != nil {
				return uerr
			}
			slots[i] = iss
			return nil
		}
		outs[i] = out
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return outs, flatten(slots), nil
}

// mapChildren runs a sequential stage (prepare or transform) over items.
func mapChildren(c skema.Context, items []any, stage func(c skema.Context, v any) (any, error)) ([]any, error) {
	out := make([]any, len(items))
	for i, it := range items {
		v, err := stage(c.Child(skema.Index(i), it), it)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
