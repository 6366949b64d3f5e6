package code

import "math"

// ParityCount returns the number of parity (or repair) blocks for k source
// blocks at the given redundancy ratio. Non-positive redundancy yields zero;
// a positive ratio yields at least one block, even for k == 1.
func ParityCount(k int, redundancy float64) int {
	if k <= 0 || redundancy <= 0 {
		return 0
	}
	// The small bias absorbs binary float noise so that e.g. 20 * 0.2 does
	// not round up to 5.
	p := int(math.Ceil(float64(k)*redundancy - 1e-9))
	if p < 1 {
		p = 1
	}
	return p
}
