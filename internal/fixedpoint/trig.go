// Package fixedpoint provides the fixed-point trigonometry used by the
// rotation stage. Cos/sin are precomputed once per rotation-degree change
// and scaled by 1000 so the hot path never touches floating point.
//
// Grounded on original_source/src/pointing/input_processor_runtime.c's
// cos_val/sin_val precompute (cos*1000, sin*1000 as int32, recomputed only
// when rotation_degrees changes).
package fixedpoint

import "math"

// Scale is the fixed-point scale factor applied to cos/sin.
const Scale = 1000

// Trig holds a precomputed cos*Scale / sin*Scale pair for one rotation
// angle.
type Trig struct {
	Cos int32
	Sin int32
}

// Identity is the Trig value for a zero-degree rotation.
var Identity = Trig{Cos: Scale, Sin: 0}

// FromDegrees precomputes cos/sin for the given integer degree angle.
// A zero angle short-circuits to Identity without calling into math.
func FromDegrees(degrees int32) Trig {
	degrees = normalize(degrees)
	if degrees == 0 {
		return Identity
	}
	rad := float64(degrees) * math.Pi / 180.0
	return Trig{
		Cos: int32(math.Round(math.Cos(rad) * Scale)),
		Sin: int32(math.Round(math.Sin(rad) * Scale)),
	}
}

// Rotate applies the fixed-point rotation to a single (x, y) pair,
// returning (x', y') using the standard 2D rotation matrix scaled by
// Scale and truncated back down with integer division.
func Rotate(x, y int32, t Trig) (rx, ry int32) {
	rx = (x*t.Cos - y*t.Sin) / Scale
	ry = (x*t.Sin + y*t.Cos) / Scale
	return rx, ry
}

// normalize folds an arbitrary integer degree value into [0, 360).
func normalize(degrees int32) int32 {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	return degrees
}
