package instance

import (
	"github.com/dshills/inputproc/internal/errs"
	"github.com/dshills/inputproc/internal/fixedpoint"
	"github.com/dshills/inputproc/internal/keybind"
	"github.com/dshills/inputproc/internal/notify"
	"github.com/dshills/inputproc/internal/pipeline"
	"github.com/dshills/inputproc/internal/templayer"
)

func fixedPointFromDegrees(deg int32) fixedpoint.Trig {
	return fixedpoint.FromDegrees(deg)
}

// commit applies a persistence-and-notify side effect after a setter has
// already mutated in.current, per spec §4.7: "the current tunable
// always updates; if persistent, the matching persistent field updates
// and a debounced settings save is scheduled. Persistent changes also
// raise a 'state-changed' observer event." Caller must hold in.mu.
func (in *Instance) commit(persistent bool, field notify.Field, apply func(*Tunables)) {
	apply(&in.current)
	if !persistent {
		return
	}
	apply(&in.persistent)
	in.debouncer.RequestSave()
	in.notifier.Notify(notify.Change{Instance: in.cfg.Name, Field: field})
}

// SetScaling implements set_scaling(mul, div) (spec §4.7).
func (in *Instance) SetScaling(mul, div uint32, persistent bool) error {
	if mul == 0 || div == 0 {
		return errs.Invalid("scaling: mul and div must both be > 0, got mul=%d div=%d", mul, div)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldScaling, func(t *Tunables) {
		t.ScaleMul, t.ScaleDiv = mul, div
	})
	in.scaleState.Reset()
	return nil
}

// SetRotation implements set_rotation(deg) (spec §4.7).
func (in *Instance) SetRotation(deg int32, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldRotation, func(t *Tunables) {
		t.RotationDeg = deg
	})
	in.trig = fixedPointFromDegrees(deg)
	in.rotState = pipeline.RotationState{}
	return nil
}

// SetTempLayer implements set_temp_layer(enabled, layer, act, deact)
// (spec §4.7).
func (in *Instance) SetTempLayer(p templayer.Params, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldTempLayer, func(t *Tunables) {
		t.TempLayer = p
	})
	in.templayer.SetParams(in.current.TempLayer)
	return nil
}

// SetTempLayerEnabled is the single-field set_temp_layer variant for
// enabled (spec §4.7 "four single-field variants").
func (in *Instance) SetTempLayerEnabled(v bool, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldTempLayer, func(t *Tunables) { t.TempLayer.Enabled = v })
	in.templayer.SetParams(in.current.TempLayer)
	return nil
}

// SetTempLayerLayer is the single-field set_temp_layer variant for layer.
func (in *Instance) SetTempLayerLayer(layer int, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldTempLayer, func(t *Tunables) { t.TempLayer.Layer = layer })
	in.templayer.SetParams(in.current.TempLayer)
	return nil
}

// SetTempLayerActMs is the single-field set_temp_layer variant for act_ms.
func (in *Instance) SetTempLayerActMs(ms uint16, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldTempLayer, func(t *Tunables) { t.TempLayer.ActMs = ms })
	in.templayer.SetParams(in.current.TempLayer)
	return nil
}

// SetTempLayerDeactMs is the single-field set_temp_layer variant for
// deact_ms.
func (in *Instance) SetTempLayerDeactMs(ms uint16, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldTempLayer, func(t *Tunables) { t.TempLayer.DeactMs = ms })
	in.templayer.SetParams(in.current.TempLayer)
	return nil
}

// SetActiveLayers implements set_active_layers(mask) (spec §4.7).
func (in *Instance) SetActiveLayers(mask uint32, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldActiveLyrs, func(t *Tunables) {
		t.ActiveLayers = mask
	})
	return nil
}

// SetAxisSnap implements set_axis_snap(mode, threshold, timeout) (spec
// §4.7). Its three single-field variants follow below.
func (in *Instance) SetAxisSnap(cfg pipeline.SnapConfig, persistent bool) error {
	if cfg.Mode != pipeline.SnapNone && cfg.Mode != pipeline.SnapX && cfg.Mode != pipeline.SnapY {
		return errs.Invalid("axis snap: invalid mode %d", cfg.Mode)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldAxisSnap, func(t *Tunables) {
		t.AxisSnap = cfg
	})
	in.snapState.Reset()
	return nil
}

// SetAxisSnapMode is the single-field set_axis_snap variant for mode.
func (in *Instance) SetAxisSnapMode(mode pipeline.AxisSnapMode, persistent bool) error {
	if mode != pipeline.SnapNone && mode != pipeline.SnapX && mode != pipeline.SnapY {
		return errs.Invalid("axis snap: invalid mode %d", mode)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldAxisSnap, func(t *Tunables) { t.AxisSnap.Mode = mode })
	in.snapState.Reset()
	return nil
}

// SetAxisSnapThreshold is the single-field set_axis_snap variant for
// threshold.
func (in *Instance) SetAxisSnapThreshold(threshold uint16, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldAxisSnap, func(t *Tunables) { t.AxisSnap.Threshold = threshold })
	in.snapState.Reset()
	return nil
}

// SetAxisSnapTimeoutMs is the single-field set_axis_snap variant for
// timeout_ms.
func (in *Instance) SetAxisSnapTimeoutMs(timeoutMs uint16, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldAxisSnap, func(t *Tunables) { t.AxisSnap.TimeoutMs = timeoutMs })
	in.snapState.Reset()
	return nil
}

// SetXYToScroll implements set_xy_to_scroll(bool) (spec §4.7).
func (in *Instance) SetXYToScroll(v bool, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldRemap, func(t *Tunables) { t.XYToScroll = v })
	return nil
}

// SetXYSwap implements set_xy_swap(bool) (spec §4.7).
func (in *Instance) SetXYSwap(v bool, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldRemap, func(t *Tunables) { t.XYSwap = v })
	return nil
}

// SetXInvert implements set_x_invert(bool) (spec §4.7).
func (in *Instance) SetXInvert(v bool, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldInvert, func(t *Tunables) { t.XInvert = v })
	return nil
}

// SetYInvert implements set_y_invert(bool) (spec §4.7).
func (in *Instance) SetYInvert(v bool, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldInvert, func(t *Tunables) { t.YInvert = v })
	return nil
}

// SetKeybindEnabled implements set_keybind_enabled(bool) (spec §4.7).
func (in *Instance) SetKeybindEnabled(v bool, persistent bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldKeybind, func(t *Tunables) { t.Keybind.Enabled = v })
	in.keybindAccum.Reset()
	return nil
}

// SetKeybindCount implements set_keybind_count(1..8) (spec §4.7).
func (in *Instance) SetKeybindCount(count int, persistent bool) error {
	if count < 1 || count > keybind.MaxDirections {
		return errs.Invalid("keybind count %d out of [1, %d]", count, keybind.MaxDirections)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldKeybind, func(t *Tunables) { t.Keybind.Count = count })
	in.keybindAccum.Reset()
	return nil
}

// SetKeybindDegreeOffset implements set_keybind_degree_offset(0..359).
func (in *Instance) SetKeybindDegreeOffset(deg uint16, persistent bool) error {
	if deg > 359 {
		return errs.Invalid("keybind degree offset %d out of [0, 359]", deg)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldKeybind, func(t *Tunables) { t.Keybind.DegreeOffset = deg })
	return nil
}

// SetKeybindTick implements set_keybind_tick(>0).
func (in *Instance) SetKeybindTick(tick uint16, persistent bool) error {
	if tick == 0 {
		return errs.Invalid("keybind tick must be > 0")
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.commit(persistent, notify.FieldKeybind, func(t *Tunables) { t.Keybind.Tick = tick })
	return nil
}

// TempLayerKeepActive implements temp_layer_keep_active(bool) (spec
// §4.7). Mirrors original_source's behavior_auto_mouse_layer_keep_active.c,
// which additionally warns when invoked while temp-layer is disabled
// for this instance (a supplemented behavior; see SPEC_FULL.md).
func (in *Instance) TempLayerKeepActive(v bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.current.TempLayer.Enabled {
		in.log.Warn("temp-layer keep-active set while temp-layer disabled", "instance", in.cfg.Name)
	}
	in.templayer.SetKeepActive(v)
}

// Reset implements reset() (spec §4.7): restore all tunables to Config
// defaults and schedule a save.
func (in *Instance) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	defaults := initialTunables(in.cfg)
	in.current = defaults
	in.persistent = defaults
	in.trig = fixedPointFromDegrees(defaults.RotationDeg)
	in.rotState = pipeline.RotationState{}
	in.snapState.Reset()
	in.scaleState.Reset()
	in.keybindAccum.Reset()
	in.templayer.SetParams(defaults.TempLayer)
	in.debouncer.RequestSave()
}

// RestorePersistent implements restore_persistent() (spec §4.7): snap
// current back to persistent, and reset snap/keybind accumulators.
func (in *Instance) RestorePersistent() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.current = in.persistent
	in.trig = fixedPointFromDegrees(in.current.RotationDeg)
	in.snapState.Reset()
	in.keybindAccum.Reset()
	in.templayer.SetParams(in.current.TempLayer)
}

// WithTemporaryKeybind implements the temp-config momentary override
// (SPEC_FULL.md supplemented feature 1, grounded on
// behavior_input_processor_keybind_temp_config.c): current is set
// without touching persistent or scheduling a save; the returned
// closure restores the prior current keybind settings.
func (in *Instance) WithTemporaryKeybind(count int, degreeOffset, tick uint16) (restore func()) {
	in.mu.Lock()
	prior := in.current.Keybind
	in.current.Keybind = keybind.Params{
		Enabled:      true,
		Count:        count,
		DegreeOffset: degreeOffset,
		Tick:         tick,
	}
	in.keybindAccum.Reset()
	in.mu.Unlock()

	return func() {
		in.mu.Lock()
		defer in.mu.Unlock()
		in.current.Keybind = prior
		in.keybindAccum.Reset()
	}
}
