package instance

import (
	"sync"
	"time"

	"github.com/dshills/inputproc/internal/fixedpoint"
	"github.com/dshills/inputproc/internal/ioevent"
	"github.com/dshills/inputproc/internal/keybind"
	"github.com/dshills/inputproc/internal/keymap"
	"github.com/dshills/inputproc/internal/notify"
	"github.com/dshills/inputproc/internal/pipeline"
	"github.com/dshills/inputproc/internal/plog"
	"github.com/dshills/inputproc/internal/sched"
	"github.com/dshills/inputproc/internal/settings"
	"github.com/dshills/inputproc/internal/templayer"
)

// Instance sequences the full pipeline (spec §4.1) for one configured
// event source, and exposes the control surface (§4.7). Access to a
// single Instance must be serialized by the caller (spec §5); Instance
// holds its own mutex for hosts that cannot guarantee single-threaded
// access.
type Instance struct {
	mu sync.Mutex

	cfg Config
	log plog.Logger
	api keymap.LayerAPI

	current    Tunables
	persistent Tunables

	trig       fixedpoint.Trig
	rotState   pipeline.RotationState
	snapState  pipeline.SnapState
	scaleState pipeline.ScaleState

	keybindAccum keybind.Accum
	keybind      *keybind.Dispatcher
	templayer    *templayer.Controller

	notifier  *notify.Notifier
	debouncer *settings.Debouncer
}

// Deps bundles the external collaborators an Instance needs (spec §6
// "Callable dependencies").
type Deps struct {
	LayerAPI     keymap.LayerAPI
	BindingReg   keybind.Registry
	Executor     sched.Executor
	Store        settings.Store
	Log          plog.Logger
}

// New builds an Instance from cfg and deps, loading any persisted
// settings over the Config defaults (spec §3 "Lifecycle").
func New(cfg Config, deps Deps) *Instance {
	in := &Instance{
		cfg:     cfg,
		log:     deps.Log,
		api:     deps.LayerAPI,
		trig:    fixedpoint.FromDegrees(cfg.InitialRotationDeg),
		keybind: &keybind.Dispatcher{Registry: deps.BindingReg, Log: deps.Log},
		notifier: notify.New(),
	}
	in.templayer = templayer.New(&in.mu, deps.LayerAPI, deps.Executor, deps.Log, templayer.Config{
		TransparentID: cfg.TransparentID,
		KPID:          cfg.KPID,
		KeepKeycodes:  cfg.TempLayerKeepKeycodes,
	}, cfg.InitialTempLayer)

	initial := initialTunables(cfg)
	if loaded, ok := settings.Load(deps.Store, persistKey(cfg.Name), deps.Log); ok {
		initial = fromSettingsValues(loaded, cfg)
	}
	in.current = initial
	in.persistent = initial
	in.trig = fixedpoint.FromDegrees(initial.RotationDeg)
	in.templayer.SetParams(initial.TempLayer)

	// valuesFn runs inside Debouncer.fire, which the Debouncer already
	// wraps to take in.mu before calling through (spec §5); locking here
	// too would deadlock.
	in.debouncer = settings.NewDebouncer(&in.mu, deps.Store, deps.Executor, deps.Log, persistKey(cfg.Name), cfg.SaveDebounceMs, func() settings.Values {
		return toSettingsValues(in.persistent)
	})

	return in
}

func persistKey(name string) string {
	return "input_proc/" + name
}

// Process runs one event through the full pipeline sequence (spec
// §4.1). emit is false only when the keybind stage consumed the event
// (§4.1 step 4); in every other early-exit case the original event is
// forwarded unchanged.
func (in *Instance) Process(ev ioevent.Event, now time.Time) (out ioevent.Event, emit bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if ev.Type != in.cfg.Type {
		return ev, true
	}

	isX, ok := in.cfg.classify(ev.Code)
	if !ok {
		return ev, true
	}

	if !pipeline.LayerGate(in.api, in.current.ActiveLayers) {
		return ev, true
	}

	layer := in.api.HighestActive()
	value := int32(ev.Value)

	if consumed, _ := in.keybind.Process(&in.keybindAccum, in.current.Keybind, in.cfg.KeybindBehaviors, isX, value, layer, now); consumed {
		return ioevent.Event{}, false
	}

	code := pipeline.Remap(pipeline.RemapConfig{ToScroll: in.current.XYToScroll, Swap: in.current.XYSwap}, isX, ev.Code, in.cfg.xCode(), in.cfg.yCode())

	if ev.Value != 0 {
		in.templayer.OnPointerEvent(now)
	}

	if in.current.RotationDeg != 0 {
		value = in.rotState.Apply(in.trig, isX, value)
	}

	if isX {
		value = pipeline.Invert(in.current.XInvert, value)
	} else {
		value = pipeline.Invert(in.current.YInvert, value)
	}

	value = in.snapState.Apply(in.current.AxisSnap, isX, value, now)

	value = in.scaleState.Apply(in.current.ScaleMul, in.current.ScaleDiv, value)

	in.templayer.RescheduleDeactivation()

	return ioevent.Event{Type: ev.Type, Code: code, Value: int16(value)}, true
}

// OnKeyPress fans a global key-position-changed event into the
// temp-layer teardown policy (spec §2 leaf 6, §4.3). The host is
// expected to call this for every configured instance.
func (in *Instance) OnKeyPress(pos keymap.Position, now time.Time) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.templayer.OnKeyPress(pos, now)
}

// GetConfig implements get_config (spec §4.7): a snapshot of the
// current public tunables.
func (in *Instance) GetConfig() Tunables {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current
}

// Name returns the instance's stable identifier.
func (in *Instance) Name() string {
	return in.cfg.Name
}

func toSettingsValues(t Tunables) settings.Values {
	return settings.Values{
		ScaleMul:            t.ScaleMul,
		ScaleDiv:            t.ScaleDiv,
		RotationDeg:         t.RotationDeg,
		TempLayerEnabled:    t.TempLayer.Enabled,
		TempLayerLayer:      uint8(t.TempLayer.Layer),
		TempLayerActMs:      t.TempLayer.ActMs,
		TempLayerDeactMs:    t.TempLayer.DeactMs,
		ActiveLayers:        t.ActiveLayers,
		AxisSnapMode:        t.AxisSnap.Mode,
		AxisSnapThreshold:   t.AxisSnap.Threshold,
		AxisSnapTimeoutMs:   t.AxisSnap.TimeoutMs,
		XYToScroll:          t.XYToScroll,
		XYSwap:              t.XYSwap,
		XInvert:             t.XInvert,
		YInvert:             t.YInvert,
		KeybindEnabled:      t.Keybind.Enabled,
		KeybindCount:        uint8(t.Keybind.Count),
		KeybindDegreeOffset: t.Keybind.DegreeOffset,
		KeybindTick:         t.Keybind.Tick,
	}
}

func fromSettingsValues(v settings.Values, cfg Config) Tunables {
	return Tunables{
		ScaleMul:    v.ScaleMul,
		ScaleDiv:    v.ScaleDiv,
		RotationDeg: v.RotationDeg,
		TempLayer: templayer.Params{
			Enabled: v.TempLayerEnabled,
			Layer:   int(v.TempLayerLayer),
			ActMs:   v.TempLayerActMs,
			DeactMs: v.TempLayerDeactMs,
		},
		ActiveLayers: v.ActiveLayers,
		AxisSnap: pipeline.SnapConfig{
			Mode:      v.AxisSnapMode,
			Threshold: v.AxisSnapThreshold,
			TimeoutMs: v.AxisSnapTimeoutMs,
		},
		XYToScroll: v.XYToScroll,
		XYSwap:     v.XYSwap,
		XInvert:    v.XInvert,
		YInvert:    v.YInvert,
		Keybind: keybind.Params{
			Enabled:      v.KeybindEnabled,
			Count:        int(v.KeybindCount),
			DegreeOffset: v.KeybindDegreeOffset,
			Tick:         v.KeybindTick,
		},
	}
}
