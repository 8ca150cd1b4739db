package fastmath

import "math"

// ParamMax is the largest raw value a host parameter slot delivers.
const ParamMax = 1023

const (
	q31Scale    = 1 << 31
	q31Recip    = 1.0 / q31Scale
	paramRecipf = 1.0 / ParamMax
)

// Q31ToF32 converts a signed Q31 fixed-point value to a float in [-1, 1).
func Q31ToF32(q int32) float32 {
	return float32(float64(q) * q31Recip)
}

// F32ToQ31 converts a float to Q31. Values outside [-1, 1) saturate.
func F32ToQ31(f float32) int32 {
	if f >= 1 {
		return math.MaxInt32
	}
	if f <= -1 {
		return math.MinInt32
	}
	return int32(float64(f) * q31Scale)
}

// ParamToF32 maps a raw 10-bit host parameter value onto [0, 1].
func ParamToF32(v uint16) float32 {
	if v >= ParamMax {
		return 1
	}
	return float32(v) * paramRecipf
}

// F32ToParam is the inverse of ParamToF32, rounding to the nearest raw step.
func F32ToParam(f float32) uint16 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return ParamMax
	}
	return uint16(f*ParamMax + 0.5)
}
