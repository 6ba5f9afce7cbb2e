// Package instance composes the pipeline stages, the keybind dispatcher,
// and the temp-layer controller into the runtime-configurable Instance
// spec §3/§4.1/§4.7 describe, plus its persistence and notification
// wiring (§6).
package instance

import (
	"github.com/dshills/inputproc/internal/ioevent"
	"github.com/dshills/inputproc/internal/keybind"
	"github.com/dshills/inputproc/internal/keymap"
	"github.com/dshills/inputproc/internal/pipeline"
	"github.com/dshills/inputproc/internal/templayer"
)

// Config is an Instance's immutable-after-init configuration (spec §3
// "Instance Config").
type Config struct {
	Name    string
	Type    ioevent.Type
	XCodes  []ioevent.Code
	YCodes  []ioevent.Code

	InitialScaleMul     uint32
	InitialScaleDiv     uint32
	InitialRotationDeg  int32
	InitialTempLayer    templayer.Params
	InitialActiveLayers uint32
	InitialAxisSnap     pipeline.SnapConfig
	InitialXYToScroll   bool
	InitialXYSwap       bool
	InitialXInvert      bool
	InitialYInvert      bool

	KeybindBehaviors []string
	InitialKeybind   keybind.Params

	TransparentID         keymap.BehaviorID
	KPID                  keymap.BehaviorID
	TempLayerKeepKeycodes map[uint16]struct{}

	// SaveDebounceMs is the interval a debounced settings save waits
	// after the last persistent change before writing (spec §5).
	SaveDebounceMs uint32

	axisIndex map[ioevent.Code]bool
}

// NewConfig builds a Config, precomputing the code→axis lookup table
// once at init rather than scanning XCodes/YCodes on every event
// (mirrors original_source's rebuild-on-codes-change table; here it is
// simply built once since Config is immutable after init).
func NewConfig(c Config) Config {
	c.axisIndex = make(map[ioevent.Code]bool, len(c.XCodes)+len(c.YCodes))
	for _, code := range c.XCodes {
		if _, exists := c.axisIndex[code]; !exists {
			c.axisIndex[code] = true
		}
	}
	for _, code := range c.YCodes {
		if _, exists := c.axisIndex[code]; !exists {
			c.axisIndex[code] = false
		}
	}
	return c
}

// classify reports whether code is a configured X axis (isX) or Y axis
// code, and whether it is configured at all (ok). The first matching
// list wins (spec §3 "the first match decides is_x").
func (c Config) classify(code ioevent.Code) (isX bool, ok bool) {
	isX, ok = c.axisIndex[code]
	return isX, ok
}

// xCode/yCode return the instance's representative X/Y codes, used by
// the remap stage's swap branch. The zero value is used if a list is
// empty (an instance with no configured codes never reaches remap).
func (c Config) xCode() ioevent.Code {
	if len(c.XCodes) == 0 {
		return 0
	}
	return c.XCodes[0]
}

func (c Config) yCode() ioevent.Code {
	if len(c.YCodes) == 0 {
		return 0
	}
	return c.YCodes[0]
}

// Tunables is the set of runtime-tunable settings that exist in both a
// "current" (active in the pipeline) and "persistent" (saved) view
// (spec §3 "Instance State").
type Tunables struct {
	ScaleMul     uint32
	ScaleDiv     uint32
	RotationDeg  int32
	TempLayer    templayer.Params
	ActiveLayers uint32
	AxisSnap     pipeline.SnapConfig
	XYToScroll   bool
	XYSwap       bool
	XInvert      bool
	YInvert      bool
	Keybind      keybind.Params
}

// initialTunables derives the starting current/persistent view from Config.
func initialTunables(c Config) Tunables {
	return Tunables{
		ScaleMul:     c.InitialScaleMul,
		ScaleDiv:     c.InitialScaleDiv,
		RotationDeg:  c.InitialRotationDeg,
		TempLayer:    c.InitialTempLayer,
		ActiveLayers: c.InitialActiveLayers,
		AxisSnap:     c.InitialAxisSnap,
		XYToScroll:   c.InitialXYToScroll,
		XYSwap:       c.InitialXYSwap,
		XInvert:      c.InitialXInvert,
		YInvert:      c.InitialYInvert,
		Keybind:      c.InitialKeybind,
	}
}
