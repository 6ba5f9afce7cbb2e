// Package templayer implements the temp-layer controller (spec §4.3): it
// opportunistically activates a keymap layer while pointer motion is
// present and tears it down on inactivity or on "foreign" key activity
// that isn't benign.
//
// Grounded on original_source/src/pointing/input_processor_runtime.c's
// temp_layer_activation_work_handler / temp_layer_deactivation_work_handler
// / position_state_changed_listener, generalized to Go with the deferred
// work modeled by internal/sched.Executor and the state-transition shape
// (Manager holding current/previous plus stale-callback re-checks) drawn
// from internal/input/mode.Manager's Switch/Push/Pop pattern.
package templayer

import (
	"strings"
	"sync"
	"time"

	"github.com/dshills/inputproc/internal/keymap"
	"github.com/dshills/inputproc/internal/plog"
	"github.com/dshills/inputproc/internal/sched"
)

// KeyboardUsagePage is the HID usage page assumed for a key-press
// behavior parameter whose page is encoded as 0 (spec §4.3 step 4).
const KeyboardUsagePage uint8 = 0x07

// State names the four phases of the temp-layer state machine (spec §4.3
// "States"). Controller does not store a State: it tracks the machine
// with its layerActive and keepActive flags and the pending scheduler
// handles.
type State uint8

const (
	Idle State = iota
	PendingActivation
	Active
	PendingDeactivation
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingActivation:
		return "pending-activation"
	case Active:
		return "active"
	case PendingDeactivation:
		return "pending-deactivation"
	default:
		return "unknown"
	}
}

// Params are the runtime-tunable temp-layer settings (spec §3 "initial
// temp_layer {enabled, layer, act_ms, deact_ms}").
type Params struct {
	Enabled bool
	Layer   int
	ActMs   uint16
	DeactMs uint16
}

// Config identifies the behaviors and keycodes the key-press teardown
// policy needs (spec §4.3 "Key-press tear-down policy").
type Config struct {
	// TransparentID is the configured transparent-behavior identity
	// token; if nil, transparency falls back to a case-insensitive name
	// match of "trans".
	TransparentID keymap.BehaviorID
	// KPID is the configured key-press-behavior identity token; if nil,
	// falls back to a case-insensitive name match of "kp".
	KPID keymap.BehaviorID
	// KeepKeycodes is the set of usage ids that do NOT trigger teardown.
	// If empty, LayerAPI.IsModifier is used instead.
	KeepKeycodes map[uint16]struct{}
}

func isTransparent(b keymap.Binding, cfg Config) bool {
	if cfg.TransparentID != nil {
		return b.ID == cfg.TransparentID
	}
	return strings.EqualFold(b.Name, "trans")
}

func isKeyPress(b keymap.Binding, cfg Config) bool {
	if cfg.KPID != nil {
		return b.ID == cfg.KPID
	}
	return strings.EqualFold(b.Name, "kp")
}

// decodeUsage extracts (page, id) from a key-press binding's params,
// mirroring the packed (page, usage-id) parameter ZMK's "kp" behavior
// takes. Params[0] is the page, Params[1] is the usage id.
func decodeUsage(b keymap.Binding) (page uint8, id uint16) {
	if len(b.Params) > 0 {
		page = uint8(b.Params[0])
	}
	if len(b.Params) > 1 {
		id = uint16(b.Params[1])
	}
	return page, id
}

// Controller owns the runtime state for one instance's temp-layer.
// Exactly one Controller exists per Instance; nothing here is shared
// across instances (spec §5: "mutation of an Instance's State from
// another context is not permitted").
type Controller struct {
	// mu is the owning Instance's mutex. Every callback handed to exec
	// must take it before touching Controller state: the scheduler runs
	// those callbacks on its own goroutine, outside whatever caller
	// already held mu when it called into the Controller (spec §5).
	mu    *sync.Mutex
	api   keymap.LayerAPI
	exec  sched.Executor
	log   plog.Logger
	cfg   Config

	params Params

	layerActive    bool
	keepActive     bool
	lastInputTS    time.Time
	lastKeypressTS time.Time

	activateHandle   sched.Handle
	deactivateHandle sched.Handle
}

// New creates a Controller bound to the given keymap layer API and
// scheduler executor. mu must be the same mutex the owning Instance
// serializes its own state under.
func New(mu *sync.Mutex, api keymap.LayerAPI, exec sched.Executor, log plog.Logger, cfg Config, params Params) *Controller {
	return &Controller{mu: mu, api: api, exec: exec, log: log, cfg: cfg, params: params}
}

// locked wraps fn so it takes c.mu before running. Every closure handed
// to c.exec.Schedule/Reschedule must go through this.
func (c *Controller) locked(fn func()) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		fn()
	}
}

// SetParams updates the runtime-tunable settings. Does not itself
// activate/deactivate anything; the next pointer event or key press
// observes the new settings.
func (c *Controller) SetParams(p Params) {
	c.params = p
}

// LayerActive reports the controller's belief about the keymap layer's
// activation state (spec: "layer_active truly tracks the keymap state").
func (c *Controller) LayerActive() bool {
	return c.layerActive
}

// KeepActive reports the current keep-active flag.
func (c *Controller) KeepActive() bool {
	return c.keepActive
}

// OnPointerEvent is called from the pipeline's temp-layer tickle step
// (§4.1 step 6) for every event with a non-zero value.
func (c *Controller) OnPointerEvent(now time.Time) {
	if !c.params.Enabled {
		return
	}
	c.lastInputTS = now

	if c.layerActive {
		return
	}

	idle := c.lastKeypressTS.IsZero() || now.Sub(c.lastKeypressTS) >= time.Duration(c.params.ActMs)*time.Millisecond
	if !idle {
		return
	}

	c.activateHandle = c.exec.Schedule(0, c.locked(c.activationCallback))
}

// activationCallback runs on the scheduler; it re-checks invariants
// because a concurrent key press may have made this stale (spec §4.3,
// §5 "Cancellation & timeouts").
func (c *Controller) activationCallback() {
	if !c.params.Enabled || c.layerActive {
		return
	}
	if err := c.api.Activate(c.params.Layer); err != nil {
		c.log.Error("temp-layer: activate failed", "layer", c.params.Layer, "err", err)
		return
	}
	c.layerActive = true
}

// RescheduleDeactivation is called from the pipeline's final step
// (§4.1 step 11) after a qualifying pointer event has been fully
// processed, while the layer is active and not kept.
func (c *Controller) RescheduleDeactivation() {
	if !c.layerActive || c.keepActive {
		return
	}
	deadline := time.Duration(c.params.DeactMs) * time.Millisecond
	c.deactivateHandle = c.exec.Reschedule(c.deactivateHandle, deadline, c.locked(c.deactivationCallback))
}

func (c *Controller) deactivationCallback() {
	if !c.layerActive || c.keepActive {
		return
	}
	c.teardown()
}

func (c *Controller) teardown() {
	if err := c.api.Deactivate(c.params.Layer); err != nil {
		c.log.Error("temp-layer: deactivate failed", "layer", c.params.Layer, "err", err)
		return
	}
	c.layerActive = false
}

// SetKeepActive implements temp_layer_keep_active(bool) (spec §4.7).
// While true, no scheduled or triggered deactivation changes
// layer_active. Clearing it while the layer is still active schedules
// an immediate deactivation.
func (c *Controller) SetKeepActive(v bool) {
	c.keepActive = v
	if !v && c.layerActive {
		c.deactivateHandle = c.exec.Reschedule(c.deactivateHandle, 0, c.locked(c.deactivationCallback))
	}
}

// OnKeyPress implements the key-press tear-down policy (spec §4.3).
// Called for every key press at the given position, regardless of
// instance or layer, so the caller (a global keycode/position listener,
// spec §2 leaf 6) is expected to fan this out to every configured
// instance.
func (c *Controller) OnKeyPress(pos keymap.Position, now time.Time) {
	c.lastKeypressTS = now

	if !c.params.Enabled || !c.layerActive || c.keepActive {
		return
	}

	if b, ok := c.api.BindingAt(c.params.Layer, pos); ok && !isTransparent(b, c.cfg) {
		return
	}

	resolved, found := c.resolveAcrossLayers(pos)
	if found && isKeyPress(resolved, c.cfg) {
		page, id := decodeUsage(resolved)
		if page == 0 {
			page = KeyboardUsagePage
		}
		var keep bool
		if len(c.cfg.KeepKeycodes) > 0 {
			_, keep = c.cfg.KeepKeycodes[id]
		} else {
			keep = c.api.IsModifier(page, id)
		}
		if keep {
			return
		}
	}

	c.exec.Cancel(c.deactivateHandle)
	c.teardown()
}

// resolveAcrossLayers scans active layers from highest index downward,
// returning the first non-transparent binding at pos (spec §4.3 step 3).
func (c *Controller) resolveAcrossLayers(pos keymap.Position) (keymap.Binding, bool) {
	for l := c.api.HighestActive(); l >= 0; l-- {
		if !c.api.Active(l) {
			continue
		}
		b, ok := c.api.BindingAt(l, pos)
		if !ok {
			continue
		}
		if !isTransparent(b, c.cfg) {
			return b, true
		}
	}
	return keymap.Binding{}, false
}
