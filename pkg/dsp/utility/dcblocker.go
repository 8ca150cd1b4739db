package utility

import "math"

// DefaultDCCutoff is the DC blocker corner frequency used by the host.
const DefaultDCCutoff = 10.0

// DCBlocker removes DC offset from a mono signal with a first-order
// high-pass filter: y[n] = x[n] - x[n-1] + R*y[n-1].
type DCBlocker struct {
	x1, y1      float32
	coefficient float32
}

// NewDCBlocker creates a DC blocker with its corner at cutoffHz.
func NewDCBlocker(cutoffHz, sampleRate float64) *DCBlocker {
	dc := &DCBlocker{}
	dc.SetCutoff(cutoffHz, sampleRate)
	return dc
}

// SetCutoff updates the cutoff frequency. R is clamped to [0.9, 0.9999]
// to keep the filter stable at any rate.
func (dc *DCBlocker) SetCutoff(cutoffHz, sampleRate float64) {
	r := 1.0 - (2.0 * math.Pi * cutoffHz / sampleRate)
	dc.coefficient = float32(ClampParameter(r, 0.9, 0.9999))
}

// Process removes DC from a single sample.
func (dc *DCBlocker) Process(input float32) float32 {
	output := input - dc.x1 + dc.coefficient*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessBuffer processes a buffer in-place.
func (dc *DCBlocker) ProcessBuffer(buffer []float32) {
	for i := range buffer {
		buffer[i] = dc.Process(buffer[i])
	}
}

// Reset clears the state.
func (dc *DCBlocker) Reset() {
	dc.x1 = 0
	dc.y1 = 0
}
