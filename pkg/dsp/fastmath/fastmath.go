// Package fastmath provides the cheap numeric primitives the oscillator core
// leans on in its per-sample loop: bit-level power approximations, Q31
// fixed-point conversion, host parameter normalization and pitch lookup.
//
// Everything here is allocation free and safe to call from the audio thread.
package fastmath

import "math"

const (
	// pow2Bias is the exponent bias plus the constant that centres the
	// linear mantissa approximation of 2^x.
	pow2Bias = 126.94269504
	// mantissaScale is 1/(1<<23).
	mantissaScale = 1.1920928955078125e-7
)

// FasterPow2 approximates 2^p by writing p straight into the exponent and
// mantissa fields of an IEEE-754 float. Relative error stays under 3%.
// Inputs are clipped to [-126, 127] so the result is always finite and
// positive.
func FasterPow2(p float32) float32 {
	if p < -126 {
		p = -126
	} else if p > 127 {
		p = 127
	}
	return math.Float32frombits(uint32(float32(1<<23) * (p + pow2Bias)))
}

// FasterLog2 is the inverse trick of FasterPow2: the float bit pattern read
// as an integer is, up to scale and bias, log2 of the value. x must be > 0;
// zero maps to roughly -127.
func FasterLog2(x float32) float32 {
	y := float32(math.Float32bits(x)) * mantissaScale
	return y - pow2Bias
}

// FasterPow approximates x^p for x >= 0 as 2^(p*log2(x)).
func FasterPow(x, p float32) float32 {
	return FasterPow2(p * FasterLog2(x))
}

// Exp2 is the accurate counterpart of FasterPow2, used where monotonicity
// in the input matters more than speed.
func Exp2(p float32) float32 {
	return float32(math.Exp2(float64(p)))
}
