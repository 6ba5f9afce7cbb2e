package luascript

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// ErrInterpClosed is returned when operating on a closed interpreter.
var ErrInterpClosed = errors.New("luascript: interpreter is closed")

// Interp wraps a gopher-lua state sandboxed down to exactly what a
// keybind behavior script needs: table/string/math and nothing that
// touches the filesystem, the network, or a shell. One Interp is
// shared by every behavior table an instance's config defines; it has
// no notion of granted capabilities because none exist in this domain
// (unlike a general plugin host, a keybind script never needs one).
//
// gopher-lua's LState is not goroutine-safe. mu serializes Go-side
// access to it; Instance additionally never calls a Registry built on
// Interp except while holding its own mutex (spec §5), so mu mainly
// protects against a caller reaching Interp directly outside that
// discipline.
type Interp struct {
	l  *lua.LState
	mu sync.Mutex

	closed bool
}

// NewInterp builds a sandboxed interpreter ready to load behavior
// scripts into.
func NewInterp() *Interp {
	in := &Interp{}

	l := lua.NewState(lua.Options{SkipOpenLibs: true})
	in.l = l

	lua.OpenBase(l)
	lua.OpenTable(l)
	lua.OpenString(l)
	lua.OpenMath(l)
	// Deliberately not opened: io, os, debug, package/full require -
	// a keybind press/release handler has no legitimate use for any
	// of them.

	sandbox(l)

	return in
}

// sandbox strips loaders that could escape the module whitelist and
// replaces require with one that only resolves already-open libraries.
func sandbox(l *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		l.SetGlobal(name, lua.LNil)
	}

	safe := map[string]bool{"string": true, "table": true, "math": true}
	original := l.GetGlobal("require")
	l.SetGlobal("require", l.NewFunction(func(l *lua.LState) int {
		name := l.CheckString(1)
		if !safe[name] {
			l.RaiseError("module %q is not available to keybind scripts", name)
			return 0
		}
		l.Push(original)
		l.Push(lua.LString(name))
		l.Call(1, 1)
		return 1
	}))
}

func (in *Interp) recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("luascript: panic: %v", r)
	}
}

// DoString executes code, typically the behavior-table definitions
// from an instance's config, once at load time.
func (in *Interp) DoString(code string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return ErrInterpClosed
	}

	var err error
	func() {
		defer in.recoverPanic(&err)
		err = in.l.DoString(code)
	}()
	return err
}

// Call invokes a global Lua function by name, returning every value it
// pushed back.
func (in *Interp) Call(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return nil, ErrInterpClosed
	}

	fnVal := in.l.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("luascript: %q is not a function (got %s)", fn, fnVal.Type())
	}

	top := in.l.GetTop()
	in.l.Push(fnVal)
	for _, a := range args {
		in.l.Push(a)
	}

	var callErr error
	func() {
		defer in.recoverPanic(&callErr)
		callErr = in.l.PCall(len(args), lua.MultRet, nil)
	}()
	if callErr != nil {
		return nil, callErr
	}

	n := in.l.GetTop() - top
	if n <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = in.l.Get(top + i + 1)
	}
	in.l.Pop(n)
	return results, nil
}

// GetGlobal returns a global variable's value.
func (in *Interp) GetGlobal(name string) lua.LValue {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return lua.LNil
	}
	return in.l.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (in *Interp) SetGlobal(name string, v lua.LValue) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	in.l.SetGlobal(name, v)
}

// Close releases the underlying Lua state. Further calls return
// ErrInterpClosed.
func (in *Interp) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.l.Close()
	in.closed = true
	return nil
}
