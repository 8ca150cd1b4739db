// Package gain provides the level, fade and clip operations of the output
// stage.
package gain

import (
	"math"

	"github.com/justyntemme/waves/pkg/dsp"
)

// LinearToDb32 converts a linear amplitude to decibels.
// Returns dsp.MinDB for values <= 0.
func LinearToDb32(linear float32) float32 {
	if linear <= 0 {
		return dsp.MinDB
	}
	db := 20.0 * float32(math.Log10(float64(linear)))
	if db < dsp.MinDB {
		return dsp.MinDB
	}
	return db
}

// DbToLinear32 converts decibels to linear amplitude.
// Values <= dsp.MinDB return 0.
func DbToLinear32(db float32) float32 {
	if db <= dsp.MinDB {
		return 0
	}
	return float32(math.Pow(10.0, float64(db)/20.0))
}

// ApplyBuffer applies gain to an entire buffer in-place.
func ApplyBuffer(buffer []float32, gain float32) {
	for i := range buffer {
		buffer[i] *= gain
	}
}

// Fade ramps the gain linearly from startGain toward endGain across the
// buffer. The last sample is one step short of endGain, so a following
// Fade starting at endGain continues without a seam.
func Fade(buffer []float32, startGain, endGain float32) {
	if len(buffer) == 0 {
		return
	}
	if startGain == endGain {
		ApplyBuffer(buffer, startGain)
		return
	}

	gainDelta := (endGain - startGain) / float32(len(buffer))
	gain := startGain
	for i := range buffer {
		buffer[i] *= gain
		gain += gainDelta
	}
}

// HardClip limits a sample to [-threshold, threshold].
func HardClip(input, threshold float32) float32 {
	if input > threshold {
		return threshold
	}
	if input < -threshold {
		return -threshold
	}
	return input
}

// HardClipBuffer applies hard clipping to an entire buffer.
func HardClipBuffer(buffer []float32, threshold float32) {
	for i := range buffer {
		buffer[i] = HardClip(buffer[i], threshold)
	}
}

// Stage is the host output stage: a level, an optional gate and a hard clip
// at full scale. Level and gate changes fade over one block.
type Stage struct {
	level   float32
	gated   bool
	open    bool
	current float32
}

// NewStage returns a stage at levelDB. When gated is false the gate is
// ignored and the stage always passes the signal.
func NewStage(levelDB float32, gated bool) *Stage {
	s := &Stage{gated: gated}
	s.SetLevelDB(levelDB)
	s.current = s.target()
	return s
}

// SetLevelDB sets the output level in decibels.
func (s *Stage) SetLevelDB(db float32) {
	s.level = DbToLinear32(db)
}

// SetOpen opens or closes the gate.
func (s *Stage) SetOpen(open bool) {
	s.open = open
}

func (s *Stage) target() float32 {
	if s.gated && !s.open {
		return 0
	}
	return s.level
}

// Process applies the stage to one block in-place.
func (s *Stage) Process(buffer []float32) {
	if len(buffer) == 0 {
		return
	}
	t := s.target()
	Fade(buffer, s.current, t)
	s.current = t
	HardClipBuffer(buffer, dsp.UnityGain)
}

// Reset jumps to the target gain without a fade.
func (s *Stage) Reset() {
	s.current = s.target()
}
