// Package dsp holds the constants shared by the DSP packages and the host.
package dsp

// Common audio constants used by the oscillator host and its helpers.
const (
	// Gain/Level constants
	MinDB     = -120.0 // Floor for dB conversions (silence)
	UnityGain = 1.0

	// Clipping threshold for meters and the output stage
	ClipThreshold = 0.999

	// Channel count; the oscillator is mono
	Mono = 1

	// Common sample rates
	SampleRate44k1 = 44100.0
	SampleRate48k  = 48000.0
	SampleRate96k  = 96000.0
	MinSampleRate  = 8000.0
	MaxSampleRate  = 192000.0

	// Block sizes in frames
	MinBufferSize     = 1
	DefaultBufferSize = 64
	MaxBufferSize     = 8192

	// Reference pitch range for A4 in Hz
	DefaultTuningA4 = 440.0
	MinTuningA4     = 400.0
	MaxTuningA4     = 480.0

	// Modulation rate range in Hz
	DefaultMinRate = 0.01
	DefaultMaxRate = 20.0

	// Pitch bend range in semitones
	DefaultBendRange = 2
	MaxBendRange     = 24
)
