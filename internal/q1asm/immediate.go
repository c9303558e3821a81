package q1asm

import (
	"fmt"
	"math"
)

// ExpandFromNormalisedRange maps v in [-1, 1] onto a signed immediate of the
// given size: floor(v*size/2). param names the setting in error messages.
func ExpandFromNormalisedRange(v float64, size int64, param string) (int64, error) {
	if math.IsNaN(v) || math.Abs(v) > 1 {
		return 0, fmt.Errorf("%w: %s = %g", ErrAmplitudeRange, param, v)
	}
	return int64(math.Floor(v * float64(size) / 2)), nil
}

// ToRegisterImmediate wraps a negative immediate into the unsigned register
// range by adding registerSize.
func ToRegisterImmediate(v, registerSize int64) int64 {
	if v < 0 {
		return v + registerSize
	}
	return v
}

// ToGridTime converts seconds to integer nanoseconds and checks that the
// result lies on the grid.
func ToGridTime(seconds float64, gridNs int64) (int64, error) {
	ns := int64(math.Round(seconds * 1e9))
	if ns%gridNs != 0 {
		return 0, fmt.Errorf("%w: %g s (%d ns) is not a multiple of the %d ns grid", ErrInvalidTiming, seconds, ns, gridNs)
	}
	return ns, nil
}

// CeilToGrid rounds ns up to the next multiple of gridNs.
func CeilToGrid(ns, gridNs int64) int64 {
	if r := ns % gridNs; r > 0 {
		return ns + gridNs - r
	}
	return ns
}

// RoundToGrid rounds ns to the nearest multiple of gridNs, halves away from zero.
func RoundToGrid(ns, gridNs int64) int64 {
	return int64(math.Round(float64(ns)/float64(gridNs))) * gridNs
}
