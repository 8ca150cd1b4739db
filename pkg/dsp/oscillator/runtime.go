package oscillator

import (
	"github.com/justyntemme/waves/pkg/dsp/fastmath"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
)

// Runtime is the set of numeric primitives the oscillator borrows from its
// host. Implementations must be allocation free; every method except
// ParamToF32 and NoteToW0 is called once or more per sample.
type Runtime interface {
	// NoteToW0 converts a note and 1/256 semitone fine tune to a phase
	// increment per sample.
	NoteToW0(note, fine uint8) float32
	// ScanF reads a table at a phase with interpolation.
	ScanF(t wavetable.Table, phase float32) float32
	// Exp2 is an accurate, monotonic 2^x.
	Exp2(x float32) float32
	// FastPow2 and FastPow are the cheap approximations of 2^x and x^p.
	FastPow2(x float32) float32
	FastPow(x, p float32) float32
	Q31ToF32(q int32) float32
	F32ToQ31(f float32) int32
	// ParamToF32 normalizes a raw host parameter value.
	ParamToF32(v uint16) float32
}

// StandardRuntime implements Runtime with the fastmath and wavetable
// packages at a fixed sample rate.
type StandardRuntime struct {
	pitch *fastmath.PitchTable
}

// NewRuntime returns a StandardRuntime for sampleRate with A4 at 440 Hz.
func NewRuntime(sampleRate float32) *StandardRuntime {
	return NewTunedRuntime(sampleRate, 440)
}

// NewTunedRuntime is NewRuntime with A4 at tuningA4 Hz.
func NewTunedRuntime(sampleRate, tuningA4 float32) *StandardRuntime {
	return &StandardRuntime{pitch: fastmath.NewPitchTable(sampleRate, tuningA4)}
}

// SampleRate returns the rate the runtime converts pitches for.
func (r *StandardRuntime) SampleRate() float32 { return r.pitch.SampleRate() }

func (r *StandardRuntime) NoteToW0(note, fine uint8) float32 { return r.pitch.W0(note, fine) }

func (r *StandardRuntime) ScanF(t wavetable.Table, phase float32) float32 {
	return wavetable.ScanF(t, phase)
}

func (r *StandardRuntime) Exp2(x float32) float32 {
	return fastmath.Exp2(x)
}

func (r *StandardRuntime) FastPow2(x float32) float32 {
	return fastmath.FasterPow2(x)
}

func (r *StandardRuntime) FastPow(x, p float32) float32 {
	return fastmath.FasterPow(x, p)
}

func (r *StandardRuntime) Q31ToF32(q int32) float32 {
	return fastmath.Q31ToF32(q)
}

func (r *StandardRuntime) F32ToQ31(f float32) int32 {
	return fastmath.F32ToQ31(f)
}

func (r *StandardRuntime) ParamToF32(v uint16) float32 {
	return fastmath.ParamToF32(v)
}
