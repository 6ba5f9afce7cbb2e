// Package keybind implements the gesture-to-keybind dispatcher (spec
// §4.2): it accumulates 2D relative motion and, once the accumulated
// squared distance crosses a configured tick threshold, resolves one of
// up to eight directions to a named binding and invokes its press then
// release.
//
// Grounded on original_source/src/pointing/input_processor_runtime.c's
// process_keybind/determine_direction/trigger_keybind_behavior — the
// half-segment-centered, non-blocking form spec §9 calls canonical (see
// DESIGN.md open-question #2 for the divergent, blocking implementation
// this package deliberately does not port). The Handler/Registry split
// mirrors internal/dispatcher/handler.Handler's Handle/CanHandle shape,
// generalized to an external binding registry (spec §6).
package keybind

import (
	"context"
	"math"
	"time"

	"github.com/dshills/inputproc/internal/keymap"
	"github.com/dshills/inputproc/internal/plog"
)

// MaxDirections is the hard cap on keybind directions (spec §1 Non-goals:
// "more than eight keybind directions").
const MaxDirections = 8

// Handler is an opaque, resolved binding handler returned by
// Registry.Lookup and passed back into Registry.Invoke. Its concrete
// type is owned entirely by the Registry implementation.
type Handler any

// InvokeParams carries the context a binding invocation needs (spec
// §4.2 "Invocation"): the currently highest-active layer, a sentinel
// position (keybind gestures have no physical key position), and the
// invocation timestamp.
type InvokeParams struct {
	Layer     int
	Position  keymap.Position
	Timestamp time.Time
}

// SentinelPosition is used as InvokeParams.Position for keybind-fired
// invocations, which have no physical key position of their own.
const SentinelPosition keymap.Position = math.MaxUint32

// Registry resolves binding names to invocable handlers and invokes
// them. It is the external "keymap/behavior registry" collaborator from
// spec §1/§6.
type Registry interface {
	// Lookup resolves a binding name to a Handler. ok is false if the
	// name is unknown.
	Lookup(name string) (h Handler, ok bool)
	// Invoke calls the resolved handler's press (pressed=true) or
	// release (pressed=false) semantics.
	Invoke(ctx context.Context, h Handler, params InvokeParams, pressed bool) error
}

// Accum is the keybind stage's 2D motion accumulator (spec §3 "keybind:
// x_accum, y_accum (signed 32)").
type Accum struct {
	X int32
	Y int32
}

// Add folds value into the accumulator on the given axis.
func (a *Accum) Add(isX bool, value int32) {
	if isX {
		a.X += value
	} else {
		a.Y += value
	}
}

// Reset zeroes both accumulators (spec §4.2 "Post-fire").
func (a *Accum) Reset() {
	a.X, a.Y = 0, 0
}

// Params are the runtime-tunable keybind settings (spec §3 "initial
// keybind {enabled, count, degree_offset, tick}").
type Params struct {
	Enabled      bool
	Count        int
	DegreeOffset uint16
	Tick         uint16
}

// Enabled reports whether the keybind stage is active for the given
// behavior list (spec §4.2 "Enablement").
func Enabled(p Params, behaviorsLen int) bool {
	return p.Enabled && p.Count > 0 && behaviorsLen > 0
}

// EffectiveCount computes k = min(count, len(behaviors), 8) (spec §4.2).
func EffectiveCount(p Params, behaviorsLen int) int {
	k := p.Count
	if behaviorsLen < k {
		k = behaviorsLen
	}
	if k > MaxDirections {
		k = MaxDirections
	}
	return k
}

// Fires reports whether the accumulated motion has crossed the tick
// threshold, using an integer squared-distance compare (no sqrt), per
// spec §4.2 "Fire condition".
func Fires(a Accum, tick uint16) bool {
	t := int64(tick)
	dx, dy := int64(a.X), int64(a.Y)
	return dx*dx+dy*dy >= t*t
}

// Direction resolves the accumulated vector to a direction index in
// [0, k), per spec §4.2 "Direction selection". k=1 always yields 0.
//
// atan2/degree-offset order follows original_source's canonical
// process_keybind: the offset is added to the resulting angle (not used
// to pre-rotate the vector), then the segment index is picked with
// half-segment centering. See DESIGN.md open-question #3 for why this
// disagrees with one worked example in spec.md §8.
func Direction(a Accum, degreeOffset uint16, k int) int {
	if k <= 1 {
		return 0
	}
	theta := math.Atan2(float64(a.Y), float64(a.X)) * 180.0 / math.Pi
	if theta < 0 {
		theta += 360
	}
	thetaPrime := math.Mod(theta+float64(degreeOffset), 360)
	segment := 360.0 / float64(k)
	idx := int(math.Floor((thetaPrime + segment/2) / segment))
	idx %= k
	if idx < 0 {
		idx += k
	}
	return idx
}

// Fired describes the outcome of a Dispatcher.Process call that reached
// the fire threshold, for callers that want to observe or test it.
type Fired struct {
	Index        int
	BehaviorName string
	Invoked      bool
}

// Dispatcher wires Accum/Params/Direction together with a Registry to
// implement the full keybind stage (spec §4.2 end to end).
type Dispatcher struct {
	Registry Registry
	Log      plog.Logger
}

// Process folds one axis event into accum and, if enabled, consumes the
// event (spec: "while enabled the event is consumed"). consumed reports
// whether the pipeline must stop (no downstream event); fired is
// non-nil only when the tick threshold was crossed this call.
func (d *Dispatcher) Process(
	accum *Accum,
	params Params,
	behaviors []string,
	isX bool,
	value int32,
	layer int,
	now time.Time,
) (consumed bool, fired *Fired) {
	if !Enabled(params, len(behaviors)) {
		return false, nil
	}

	accum.Add(isX, value)

	if !Fires(*accum, params.Tick) {
		return true, nil
	}

	k := EffectiveCount(params, len(behaviors))
	idx := Direction(*accum, params.DegreeOffset, k)
	name := behaviors[idx]
	accum.Reset()

	result := &Fired{Index: idx, BehaviorName: name}

	h, ok := d.Registry.Lookup(name)
	if !ok {
		d.Log.Warn("keybind: behavior not found, direction disabled", "name", name, "index", idx)
		return true, result
	}

	ip := InvokeParams{Layer: layer, Position: SentinelPosition, Timestamp: now}
	if err := d.Registry.Invoke(context.Background(), h, ip, true); err != nil {
		d.Log.Error("keybind: press failed", "name", name, "err", err)
		return true, result
	}
	if err := d.Registry.Invoke(context.Background(), h, ip, false); err != nil {
		d.Log.Error("keybind: release failed", "name", name, "err", err)
	}
	result.Invoked = true

	return true, result
}
