package pipeline

import "github.com/dshills/inputproc/internal/fixedpoint"

// RotationState is the rotation stage's pairing state (spec §3 "rotation
// carry: last_x, last_y, has_x, has_y"). The pipeline sees X and Y
// events separately; this stage pairs the most recent value on the
// other axis with the incoming one before rotating (spec §4.4).
type RotationState struct {
	LastX, LastY int32
	HasX, HasY   bool
}

// Apply rotates one axis event, mutating rs. When rotation is bypassed
// (trig == fixedpoint.Identity, i.e. rotation_degrees == 0) callers
// should skip this stage entirely per spec §4.4 rather than call Apply,
// since a 0-degree "rotation" still introduces one-event pairing
// latency that an actual bypass must not.
func (rs *RotationState) Apply(trig fixedpoint.Trig, isX bool, value int32) int32 {
	if isX {
		rs.LastX = value
		rs.HasX = true
		if !rs.HasY {
			return 0
		}
		rs.HasY = false
		return (rs.LastX*trig.Cos - rs.LastY*trig.Sin) / fixedpoint.Scale
	}

	rs.LastY = value
	rs.HasY = true
	if !rs.HasX {
		return 0
	}
	rs.HasX = false
	return (rs.LastX*trig.Sin + rs.LastY*trig.Cos) / fixedpoint.Scale
}
