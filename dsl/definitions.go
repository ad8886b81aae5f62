package dsl

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/reoring/skema"
)

// Definitions is a table of named schemas. Ref returns a lazy schema that
// looks its name up on first use, so definitions may refer to each other (or
// themselves) in any order.
type Definitions struct {
	reg  *skema.Registry
	mu   sync.RWMutex
	defs map[string]skema.Schema
	refs map[string]struct{}
}

// NewDefinitions creates an empty table.
func NewDefinitions(reg *skema.Registry) *Definitions {
	return &Definitions{reg: reg, defs: map[string]skema.Schema{}, refs: map[string]struct{}{}}
}

// Define registers s under name, replacing any previous definition. Define
// everything before the first parse that reaches a Ref to it.
func (d *Definitions) Define(name string, s skema.Schema) {
	d.mu.Lock()
	d.defs[name] = s
	d.mu.Unlock()
}

// Lookup returns the definition for name.
func (d *Definitions) Lookup(name string) (skema.Schema, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.defs[name]
	return s, ok
}

// Names returns the defined names in ascending order.
func (d *Definitions) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.defs))
	for k := range d.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Ref returns a schema resolving to the definition of name.
func (d *Definitions) Ref(name string, opts ...Option) (*LazySchema, error) {
	d.mu.Lock()
	d.refs[name] = struct{}{}
	d.mu.Unlock()
	return newLazy(d.reg, name, func() skema.Schema {
		s, _ := d.Lookup(name)
		return s
	}, opts...)
}

// MustRef is like Ref but panics on error.
func (d *Definitions) MustRef(name string, opts ...Option) *LazySchema {
	return must(d.Ref(name, opts...))
}

// Check reports every referenced name that has no definition.
func (d *Definitions) Check() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var missing []string
	for name := range d.refs {
		if _, ok := d.defs[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	errs := make([]error, len(missing))
	for i, name := range missing {
		errs[i] = fmt.Errorf("%w: %s", skema.ErrUnresolvedRef, name)
	}
	return errors.Join(errs...)
}
