// Package utility provides small DSP helpers for the host: controller
// scaling and DC removal.
package utility

import "math"

// ControllerMax is the largest 7-bit MIDI controller value.
const ControllerMax = 127

// ScaleParameter performs linear scaling of a normalized value (0-1) to a target range.
func ScaleParameter(normalized, min, max float64) float64 {
	return min + normalized*(max-min)
}

// ScaleParameterExp performs exponential scaling of a normalized value (0-1) to a target range.
// Used for rates, where equal controller steps should be equal ratios.
func ScaleParameterExp(normalized, min, max float64) float64 {
	if min <= 0 || max <= 0 {
		return ScaleParameter(normalized, min, max)
	}
	return min * math.Pow(max/min, normalized)
}

// ClampParameter ensures a value stays within the specified range.
func ClampParameter(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ControllerToNormalized maps a 7-bit controller value onto [0, 1].
// Values above 127 clamp.
func ControllerToNormalized(v uint8) float64 {
	if v >= ControllerMax {
		return 1
	}
	return float64(v) / ControllerMax
}

// NormalizedToRaw rounds a normalized value onto the integer range
// [0, max].
func NormalizedToRaw(normalized float64, max int) int {
	if max <= 0 {
		return 0
	}
	n := ClampParameter(normalized, 0, 1)
	return int(math.Round(n * float64(max)))
}
