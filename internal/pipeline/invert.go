package pipeline

// Invert negates value if invert is set (spec §4.1 step 8). Applying it
// twice is its own inverse (spec §8 "Invert involution").
func Invert(invert bool, value int32) int32 {
	if invert {
		return -value
	}
	return value
}
