// Package modulation provides the control-rate sources that feed the
// oscillator's LFO input.
package modulation

import (
	"fmt"
	"math"
	"strings"
)

// Waveform represents the LFO waveform shape
type Waveform int

const (
	// WaveformSine produces a sine wave
	WaveformSine Waveform = iota
	// WaveformTriangle produces a triangle wave
	WaveformTriangle
	// WaveformSquare produces a square wave
	WaveformSquare
	// WaveformSawtooth produces a sawtooth wave (ramp up)
	WaveformSawtooth
	// WaveformRandom produces random values (sample & hold noise)
	WaveformRandom
)

var waveformNames = [...]string{"sine", "triangle", "square", "saw", "random"}

func (w Waveform) String() string {
	if w >= 0 && int(w) < len(waveformNames) {
		return waveformNames[w]
	}
	return fmt.Sprintf("Waveform(%d)", int(w))
}

// ParseWaveform accepts the names String returns.
func ParseWaveform(s string) (Waveform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range waveformNames {
		if s == name {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("modulation: unknown waveform %q", s)
}

// LFO is a low frequency oscillator evaluated once per block. Advance
// reports the value at the start of the block and moves the phase across
// it, so the consumer can ramp toward the next block's value.
type LFO struct {
	sampleRate float64

	frequency float64  // Hz
	phase     float64  // 0-1
	waveform  Waveform // Waveform type
	depth     float64  // 0-1
	offset    float64  // -1 to 1

	phaseInc float64

	// sample and hold state
	currentRandom float64
	randomCounter int
	randomPeriod  int
	randState     uint32
}

// NewLFO creates a 1 Hz sine LFO at full depth.
func NewLFO(sampleRate float64) *LFO {
	lfo := &LFO{
		sampleRate: sampleRate,
		frequency:  1.0,
		waveform:   WaveformSine,
		depth:      1.0,
		randState:  1,
	}

	lfo.updatePhaseIncrement()
	return lfo
}

// SetFrequency sets the LFO frequency in Hz, limited to 0.01-20 Hz.
func (l *LFO) SetFrequency(hz float64) {
	l.frequency = math.Max(0.01, math.Min(20.0, hz))
	l.updatePhaseIncrement()
}

// SetWaveform sets the LFO waveform
func (l *LFO) SetWaveform(waveform Waveform) {
	l.waveform = waveform
	if waveform == WaveformRandom {
		l.updateRandomPeriod()
		l.currentRandom = 2.0*l.randFloat() - 1.0
		l.randomCounter = 0
	}
}

// SetDepth sets the modulation depth (0-1)
func (l *LFO) SetDepth(depth float64) {
	l.depth = math.Max(0.0, math.Min(1.0, depth))
}

// SetOffset sets the DC offset (-1 to 1)
func (l *LFO) SetOffset(offset float64) {
	l.offset = math.Max(-1.0, math.Min(1.0, offset))
}

// SetPhase sets the current phase (0-1)
func (l *LFO) SetPhase(phase float64) {
	l.phase = phase - math.Floor(phase)
}

// Seed restarts the sample and hold generator.
func (l *LFO) Seed(seed uint32) {
	if seed == 0 {
		seed = 1
	}
	l.randState = seed
}

func (l *LFO) updatePhaseIncrement() {
	l.phaseInc = l.frequency / l.sampleRate
	l.updateRandomPeriod()
}

func (l *LFO) updateRandomPeriod() {
	if l.frequency > 0 {
		l.randomPeriod = int(l.sampleRate / l.frequency)
	} else {
		l.randomPeriod = int(l.sampleRate)
	}
}

// shape evaluates the raw waveform at the current phase.
func (l *LFO) shape() float64 {
	switch l.waveform {
	case WaveformSine:
		return math.Sin(2.0 * math.Pi * l.phase)

	case WaveformTriangle:
		if l.phase < 0.5 {
			return 4.0*l.phase - 1.0
		}
		return 3.0 - 4.0*l.phase

	case WaveformSquare:
		if l.phase < 0.5 {
			return 1.0
		}
		return -1.0

	case WaveformSawtooth:
		return 2.0*l.phase - 1.0

	case WaveformRandom:
		return l.currentRandom

	default:
		return 0.0
	}
}

// Value returns the output at the current phase without advancing.
func (l *LFO) Value() float64 {
	output := l.shape()*l.depth + l.offset
	return math.Max(-1.0, math.Min(1.0, output))
}

// Advance returns the current output and moves the LFO forward by frames
// samples.
func (l *LFO) Advance(frames int) float64 {
	v := l.Value()
	if frames <= 0 {
		return v
	}

	l.phase += l.phaseInc * float64(frames)
	l.phase -= math.Floor(l.phase)

	if l.waveform == WaveformRandom {
		l.randomCounter += frames
		if l.randomCounter >= l.randomPeriod {
			l.randomCounter %= max(l.randomPeriod, 1)
			l.currentRandom = 2.0*l.randFloat() - 1.0
		}
	}
	return v
}

// Reset resets the LFO state
func (l *LFO) Reset() {
	l.phase = 0.0
	l.randomCounter = 0
	l.currentRandom = 0.0
}

// randFloat is a linear congruential generator in [0, 1).
func (l *LFO) randFloat() float64 {
	l.randState = l.randState*1664525 + 1013904223
	return float64(l.randState) / float64(1<<32)
}
