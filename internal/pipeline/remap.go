package pipeline

import "github.com/dshills/inputproc/internal/ioevent"

// RemapConfig holds the code-remap tunables (spec §4.1 step 5).
// Exactly one of ToScroll/Swap takes effect per event; ToScroll wins
// when both are set (spec §3 invariants).
type RemapConfig struct {
	ToScroll bool
	Swap     bool
}

// Remap computes the output code for one axis event. xCode/yCode are the
// instance's own configured X/Y codes, used when Swap is in effect.
func Remap(cfg RemapConfig, isX bool, code ioevent.Code, xCode, yCode ioevent.Code) ioevent.Code {
	switch {
	case cfg.ToScroll:
		if isX {
			return ioevent.CodeHWheel
		}
		return ioevent.CodeWheel
	case cfg.Swap:
		if isX {
			return yCode
		}
		return xCode
	default:
		return code
	}
}
