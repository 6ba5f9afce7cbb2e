// Package rpcview provides a JSON-serializable public snapshot of an
// instance's current tunables (SPEC_FULL.md supplemented feature 3,
// grounded on original_source's src/studio/{custom_handler,
// input_processor_listener}.c RPC bridge). No transport is implemented
// here — only the message shape and a registry-backed lookup, matching
// spec §1's Non-goal on wire protocols/transports.
package rpcview

import "github.com/dshills/inputproc/internal/instance"

// View mirrors the persisted-settings field set (spec §6) plus the
// instance name, in the shape a studio/RPC layer would serialize as the
// observer payload on persistent change, or as the get_config response
// (spec §4.7).
type View struct {
	Name string `json:"name"`

	ScaleMul    uint32 `json:"scale_mul"`
	ScaleDiv    uint32 `json:"scale_div"`
	RotationDeg int32  `json:"rotation_deg"`

	TempLayerEnabled bool   `json:"temp_layer_enabled"`
	TempLayerLayer   int    `json:"temp_layer_layer"`
	TempLayerActMs   uint16 `json:"temp_layer_act_ms"`
	TempLayerDeactMs uint16 `json:"temp_layer_deact_ms"`

	ActiveLayers uint32 `json:"active_layers"`

	AxisSnapMode      uint8  `json:"axis_snap_mode"`
	AxisSnapThreshold uint16 `json:"axis_snap_threshold"`
	AxisSnapTimeoutMs uint16 `json:"axis_snap_timeout_ms"`

	XYToScroll bool `json:"xy_to_scroll"`
	XYSwap     bool `json:"xy_swap"`
	XInvert    bool `json:"x_invert"`
	YInvert    bool `json:"y_invert"`

	KeybindEnabled      bool   `json:"keybind_enabled"`
	KeybindCount        int    `json:"keybind_count"`
	KeybindDegreeOffset uint16 `json:"keybind_degree_offset"`
	KeybindTick         uint16 `json:"keybind_tick"`
}

// FromInstance builds a View from an instance's current public config.
func FromInstance(in *instance.Instance) View {
	name := in.Name()
	t := in.GetConfig()
	return View{
		Name:                name,
		ScaleMul:            t.ScaleMul,
		ScaleDiv:            t.ScaleDiv,
		RotationDeg:         t.RotationDeg,
		TempLayerEnabled:    t.TempLayer.Enabled,
		TempLayerLayer:      t.TempLayer.Layer,
		TempLayerActMs:      t.TempLayer.ActMs,
		TempLayerDeactMs:    t.TempLayer.DeactMs,
		ActiveLayers:        t.ActiveLayers,
		AxisSnapMode:        uint8(t.AxisSnap.Mode),
		AxisSnapThreshold:   t.AxisSnap.Threshold,
		AxisSnapTimeoutMs:   t.AxisSnap.TimeoutMs,
		XYToScroll:          t.XYToScroll,
		XYSwap:              t.XYSwap,
		XInvert:             t.XInvert,
		YInvert:             t.YInvert,
		KeybindEnabled:      t.Keybind.Enabled,
		KeybindCount:        t.Keybind.Count,
		KeybindDegreeOffset: t.Keybind.DegreeOffset,
		KeybindTick:         t.Keybind.Tick,
	}
}

// Lookup resolves an instance by name; implemented by
// internal/registry.Registry[*instance.Instance].
type Lookup interface {
	Get(name string) (*instance.Instance, bool)
}

// Snapshot resolves name in reg and returns its public View. ok is false
// if no instance is registered under that name (spec §7 NotFound).
func Snapshot(reg Lookup, name string) (View, bool) {
	in, ok := reg.Get(name)
	if !ok {
		return View{}, false
	}
	return FromInstance(in), true
}
