// Package luascript implements keybind.Registry on top of a sandboxed
// Lua interpreter, so keybind_behaviors can name Lua-defined actions
// instead of only Go closures (SPEC_FULL.md domain stack: exercises
// github.com/yuin/gopher-lua).
//
// Each behavior is a global Lua table with press/release functions:
//
//	UP = {
//	  press = function(layer, position, unix_ms) end,
//	  release = function(layer, position, unix_ms) end,
//	}
package luascript

import (
	"context"
	"fmt"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/inputproc/internal/keybind"
)

// handler is the Handler value luascript.Registry.Lookup returns: the
// name of the global Lua table the behavior is defined in. Resolution
// is deferred to Invoke since keybind.Handler is opaque to its callers.
type handler struct {
	table string
}

// Registry resolves keybind behavior names to Lua tables and invokes
// their press/release functions.
type Registry struct {
	interp *Interp
}

// New wraps an already-initialized Interp (built with NewInterp and
// populated via Interp.DoString by the caller, typically with the
// instance's configured keybind script source) as a keybind.Registry.
func New(interp *Interp) *Registry {
	return &Registry{interp: interp}
}

// Lookup implements keybind.Registry. ok is false if name is not a Lua
// table global.
func (r *Registry) Lookup(name string) (h keybind.Handler, ok bool) {
	v := r.interp.GetGlobal(name)
	if v.Type() != glua.LTTable {
		return nil, false
	}
	return handler{table: name}, true
}

// Invoke implements keybind.Registry: calls "<table>.press" or
// "<table>.release" with (layer, position, unix millisecond timestamp).
// A behavior missing the requested function is treated as a no-op, not
// an error, matching spec §4.2's "log and continue" tolerance for
// binding invocation failures.
func (r *Registry) Invoke(ctx context.Context, h keybind.Handler, params keybind.InvokeParams, pressed bool) error {
	hd, ok := h.(handler)
	if !ok {
		return fmt.Errorf("luascript: invalid handler %T", h)
	}

	fnName := "release"
	if pressed {
		fnName = "press"
	}

	tbl, ok := r.interp.GetGlobal(hd.table).(*glua.LTable)
	if !ok {
		return fmt.Errorf("luascript: %q is not a table", hd.table)
	}
	fn := tbl.RawGetString(fnName)
	if fn == glua.LNil {
		return nil
	}

	qualified := hd.table + "." + fnName
	r.interp.SetGlobal("__luascript_dispatch", fn)
	defer r.interp.SetGlobal("__luascript_dispatch", glua.LNil)

	results, err := r.interp.Call("__luascript_dispatch",
		glua.LNumber(params.Layer),
		glua.LNumber(uint32(params.Position)),
		glua.LNumber(params.Timestamp.UnixMilli()),
	)
	if err != nil {
		return fmt.Errorf("luascript: %s: %w", qualified, err)
	}

	if len(results) > 0 && isExplicitFalse(results[0]) {
		return fmt.Errorf("luascript: %s reported failure", qualified)
	}
	return nil
}

// isExplicitFalse reports whether a behavior function returned the
// literal boolean false, the only return value this domain treats as
// a failure signal (nil/no-return means success, spec §4.2's "log and
// continue" tolerance).
func isExplicitFalse(v glua.LValue) bool {
	b, ok := v.(glua.LBool)
	return ok && !bool(b)
}
