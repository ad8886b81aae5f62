package script

import (
	"fmt"

	"github.com/dop251/goja"
)

// dangerousGlobals are removed from every runtime before first use.
var dangerousGlobals = []string{
	"require",
	"module",
	"exports",
	"process",
	"global",
	"Buffer",
	"setTimeout",
	"setInterval",
	"setImmediate",
}

// applySandbox removes host globals, disables eval and Function, and bounds
// the call stack.
func applySandbox(vm *goja.Runtime, maxStack int) error {
	for _, name := range dangerousGlobals {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("script: remove %s: %w", name, err)
		}
	}
	restricted := func(name string) func(goja.FunctionCall) goja.Value {
		return func(goja.FunctionCall) goja.Value {
			panic(vm.NewTypeError(name + " is not allowed"))
		}
	}
	if err := vm.Set("eval", restricted("eval")); err != nil {
		return fmt.Errorf("script: restrict eval: %w", err)
	}
	if err := vm.Set("Function", restricted("Function")); err != nil {
		return fmt.Errorf("script: restrict Function: %w", err)
	}
	if maxStack > 0 {
		vm.SetMaxCallStackSize(maxStack)
	}
	return nil
}
