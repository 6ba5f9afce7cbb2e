package luascript

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/inputproc/internal/keybind"
)

func newTestState(t *testing.T, script string) *Interp {
	t.Helper()
	interp := NewInterp()
	t.Cleanup(func() { interp.Close() })
	if err := interp.DoString(script); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	return interp
}

func TestRegistry_Lookup_ResolvesTableGlobal(t *testing.T) {
	state := newTestState(t, `
		UP = {
			press = function(layer, position, unix_ms) end,
		}
	`)
	reg := New(state)

	h, ok := reg.Lookup("UP")
	if !ok {
		t.Fatal("expected UP to resolve")
	}
	if h == nil {
		t.Error("expected a non-nil handler")
	}
}

func TestRegistry_Lookup_MissesNonTableGlobal(t *testing.T) {
	state := newTestState(t, `NOT_A_TABLE = 5`)
	reg := New(state)

	if _, ok := reg.Lookup("NOT_A_TABLE"); ok {
		t.Error("expected a non-table global to miss")
	}
	if _, ok := reg.Lookup("MISSING"); ok {
		t.Error("expected an undefined global to miss")
	}
}

func TestRegistry_Invoke_CallsPressAndRelease(t *testing.T) {
	state := newTestState(t, `
		calls = {}
		UP = {
			press = function(layer, position, unix_ms) table.insert(calls, "press") end,
			release = function(layer, position, unix_ms) table.insert(calls, "release") end,
		}
	`)
	reg := New(state)
	h, ok := reg.Lookup("UP")
	if !ok {
		t.Fatal("expected UP to resolve")
	}

	params := keybind.InvokeParams{Layer: 0, Timestamp: time.Now()}
	if err := reg.Invoke(context.Background(), h, params, true); err != nil {
		t.Fatalf("Invoke(press): %v", err)
	}
	if err := reg.Invoke(context.Background(), h, params, false); err != nil {
		t.Fatalf("Invoke(release): %v", err)
	}

	if err := state.DoString(`assert(#calls == 2 and calls[1] == "press" and calls[2] == "release")`); err != nil {
		t.Errorf("call order assertion failed: %v", err)
	}
}

func TestRegistry_Invoke_MissingFunctionIsNoop(t *testing.T) {
	state := newTestState(t, `UP = { press = function() end }`)
	reg := New(state)
	h, _ := reg.Lookup("UP")

	// UP has no release function; invoking release should be a no-op,
	// not an error.
	if err := reg.Invoke(context.Background(), h, keybind.InvokeParams{}, false); err != nil {
		t.Errorf("Invoke(release) on missing function = %v, want nil", err)
	}
}

func TestRegistry_Invoke_FalseReturnIsFailure(t *testing.T) {
	state := newTestState(t, `
		UP = { press = function() return false end }
	`)
	reg := New(state)
	h, _ := reg.Lookup("UP")

	if err := reg.Invoke(context.Background(), h, keybind.InvokeParams{}, true); err == nil {
		t.Error("expected an error when the Lua handler returns false")
	}
}
