// Package keymap declares the external collaborators the pipeline and
// temp-layer controller depend on: the keymap/behavior registry that
// resolves and activates layers and bindings. Per spec §1 this registry
// is an external collaborator — the device-tree/keymap runtime that a
// real firmware build supplies — so this package only defines the
// interfaces and the small value types passed across that boundary.
//
// The interface shape is grounded on internal/dispatcher/handler.Handler
// (CanHandle/Handle/Priority) generalized to layer activation and
// binding resolution, and on internal/input/keymap.Registry's
// Lookup/LookupAll pattern for BindingAt.
package keymap

// Position identifies a physical key position in the keymap, the unit
// zmk_position_state_changed events are keyed by.
type Position uint32

// BehaviorID is an opaque identity token for a resolved behavior/binding
// handler. Configured identity tokens (transparent_behavior_id,
// kp_behavior_id) are compared against a Binding.ID with ==; per spec §9
// ("Behavior identity... compare by handler identity... not by string,
// when configured"), only fall back to Binding.Name matching when ID is
// the zero value.
type BehaviorID any

// Binding is a resolved layer binding: a behavior identity plus whatever
// parameters that behavior was invoked with (e.g. a key-press behavior's
// (page, usage-id) pair).
type Binding struct {
	ID     BehaviorID
	Name   string
	Params []int32
}

// IsZero reports whether b is the unresolved/absent binding.
func (b Binding) IsZero() bool {
	return b.ID == nil && b.Name == "" && b.Params == nil
}

// LayerAPI is the keymap runtime's layer surface: activation, the
// highest-active-layer query used for keybind invocation context, and
// binding resolution used by the temp-layer key-press teardown policy
// (spec §4.3).
type LayerAPI interface {
	// Activate turns on layer i. Implementations should be idempotent.
	Activate(i int) error
	// Deactivate turns off layer i. Implementations should be idempotent.
	Deactivate(i int) error
	// Active reports whether layer i is currently active.
	Active(i int) bool
	// HighestActive returns the index of the highest-active layer, or -1
	// if none are active.
	HighestActive() int
	// BindingAt resolves the binding at (layer, position). The second
	// return is false if the layer has no binding configured there.
	BindingAt(layer int, pos Position) (Binding, bool)
	// IsModifier reports whether (page, usageID) is a modifier key usage,
	// used as the fallback keep-active rule when temp_layer_keep_keycodes
	// is empty.
	IsModifier(page uint8, usageID uint16) bool
}
