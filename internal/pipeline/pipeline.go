// Package pipeline implements the pure per-stage transforms of the event
// pipeline (spec §4.1, §4.4-§4.6): code remap, rotation, axis invert,
// axis snap, and scaling, plus the layer-gate predicate. Each stage
// operates on a small accumulator/tunable struct it owns rather than a
// monolithic State, so it can be tested in isolation; internal/instance
// composes them in the fixed order spec.md §4.1 requires.
package pipeline

import (
	"github.com/dshills/inputproc/internal/keymap"
)

// LayerGate reports whether the pipeline should continue processing an
// event, per spec §4.1 step 3: "If active_layers != 0 and none of the
// bits map to a currently-active keymap layer, forward unchanged."
// mask == 0 always passes (gated in). Invalid bit indices (layers the
// keymap doesn't have) are skipped, not treated as active.
func LayerGate(api keymap.LayerAPI, mask uint32) bool {
	if mask == 0 {
		return true
	}
	for i := 0; i < 32; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		if api.Active(i) {
			return true
		}
	}
	return false
}
