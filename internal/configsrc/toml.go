// Package configsrc loads a fleet of instance.Config values from a TOML
// file, the ambient-stack analog of dshills-keystorm's
// internal/config/loader/toml.go for this module's simulator/CLI.
package configsrc

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/inputproc/internal/errs"
	"github.com/dshills/inputproc/internal/instance"
	"github.com/dshills/inputproc/internal/ioevent"
	"github.com/dshills/inputproc/internal/keybind"
	"github.com/dshills/inputproc/internal/pipeline"
	"github.com/dshills/inputproc/internal/templayer"
)

// instanceSpec is the TOML-facing shape of one [[instance]] table. It
// mirrors instance.Config's fields in a form the toml package can
// unmarshal directly (plain scalars/slices, no interfaces).
type instanceSpec struct {
	Name   string   `toml:"name"`
	XCodes []uint16 `toml:"x_codes"`
	YCodes []uint16 `toml:"y_codes"`

	ScaleMul    uint32 `toml:"scale_mul"`
	ScaleDiv    uint32 `toml:"scale_div"`
	RotationDeg int32  `toml:"rotation_deg"`

	TempLayerEnabled bool   `toml:"temp_layer_enabled"`
	TempLayerLayer   int    `toml:"temp_layer_layer"`
	TempLayerActMs   uint16 `toml:"temp_layer_act_ms"`
	TempLayerDeactMs uint16 `toml:"temp_layer_deact_ms"`

	ActiveLayers uint32 `toml:"active_layers"`

	AxisSnapMode      uint8  `toml:"axis_snap_mode"`
	AxisSnapThreshold uint16 `toml:"axis_snap_threshold"`
	AxisSnapTimeoutMs uint16 `toml:"axis_snap_timeout_ms"`

	XYToScroll bool `toml:"xy_to_scroll"`
	XYSwap     bool `toml:"xy_swap"`
	XInvert    bool `toml:"x_invert"`
	YInvert    bool `toml:"y_invert"`

	KeybindBehaviors    []string `toml:"keybind_behaviors"`
	KeybindEnabled      bool     `toml:"keybind_enabled"`
	KeybindCount        int      `toml:"keybind_count"`
	KeybindDegreeOffset uint16   `toml:"keybind_degree_offset"`
	KeybindTick         uint16   `toml:"keybind_tick"`

	SaveDebounceMs uint32 `toml:"save_debounce_ms"`
}

// fleetFile is the root TOML document shape: a list of instances.
type fleetFile struct {
	Instance []instanceSpec `toml:"instance"`
}

// Load reads path and returns the configured instance.Config fleet, in
// file order.
func Load(path string) ([]instance.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IoFailure("configsrc: read "+path, err)
	}
	return Parse(data)
}

// Parse decodes TOML fleet data into instance.Config values.
func Parse(data []byte) ([]instance.Config, error) {
	var doc fleetFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("configsrc: parse: %w", err)
	}

	out := make([]instance.Config, 0, len(doc.Instance))
	for _, spec := range doc.Instance {
		out = append(out, instance.NewConfig(instance.Config{
			Name:   spec.Name,
			Type:   ioevent.TypeRelative,
			XCodes: toCodes(spec.XCodes),
			YCodes: toCodes(spec.YCodes),

			InitialScaleMul:    spec.ScaleMul,
			InitialScaleDiv:    spec.ScaleDiv,
			InitialRotationDeg: spec.RotationDeg,
			InitialTempLayer: templayer.Params{
				Enabled: spec.TempLayerEnabled,
				Layer:   spec.TempLayerLayer,
				ActMs:   spec.TempLayerActMs,
				DeactMs: spec.TempLayerDeactMs,
			},
			InitialActiveLayers: spec.ActiveLayers,
			InitialAxisSnap: pipeline.SnapConfig{
				Mode:      pipeline.AxisSnapMode(spec.AxisSnapMode),
				Threshold: spec.AxisSnapThreshold,
				TimeoutMs: spec.AxisSnapTimeoutMs,
			},
			InitialXYToScroll: spec.XYToScroll,
			InitialXYSwap:     spec.XYSwap,
			InitialXInvert:    spec.XInvert,
			InitialYInvert:    spec.YInvert,

			KeybindBehaviors: spec.KeybindBehaviors,
			InitialKeybind: keybind.Params{
				Enabled:      spec.KeybindEnabled,
				Count:        spec.KeybindCount,
				DegreeOffset: spec.KeybindDegreeOffset,
				Tick:         spec.KeybindTick,
			},

			SaveDebounceMs: spec.SaveDebounceMs,
		}))
	}
	return out, nil
}

func toCodes(vals []uint16) []ioevent.Code {
	codes := make([]ioevent.Code, len(vals))
	for i, v := range vals {
		codes[i] = ioevent.Code(v)
	}
	return codes
}
