// Package host runs the morphing oscillator as a mono instrument: it turns
// MIDI events into note, pitch and parameter changes, renders fixed-size
// blocks with an internal LFO feeding the shape modulation input, and
// delivers the result to an audio device, a WAV file or an io.Reader.
package host

import (
	"errors"
	"fmt"
	"time"

	"github.com/justyntemme/waves/pkg/dsp"
	"github.com/justyntemme/waves/pkg/dsp/buffer"
	"github.com/justyntemme/waves/pkg/dsp/modulation"
	"github.com/justyntemme/waves/pkg/midi"
)

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("host: invalid config")

// Omni listens to every MIDI channel.
const Omni = -1

// Config holds everything the engine needs to start.
type Config struct {
	SampleRate float64
	BlockSize  int
	TuningA4   float64

	// Channel is the MIDI channel 0-15 to respond to, or Omni.
	Channel int
	// BendRange is the pitch bend span in semitones each way.
	BendRange int
	// QueueSize bounds the pending event queue.
	QueueSize int

	// Controller numbers mapped onto the oscillator and the LFO.
	CCWave       uint8
	CCShape      uint8
	CCShiftShape uint8
	CCLFODepth   uint8
	CCLFORate    uint8

	LFORate     float64
	LFODepth    float64
	LFOWaveform modulation.Waveform
	// LFOOffset shifts the LFO output, -1 to 1. LFOPhase is the phase
	// the LFO starts from after Reset. LFOSeed seeds the random waveform.
	LFOOffset float64
	LFOPhase  float64
	LFOSeed   uint32

	// LevelDB is the output level. Gate mutes the output while no note is
	// held; without it the oscillator drones.
	LevelDB float32
	Gate    bool
	DCBlock bool

	// Latency is the write-ahead distance of the live stream.
	Latency time.Duration
}

// DefaultConfig returns a 48 kHz, 64-frame configuration listening on all
// channels with the sound controllers 70-72 on wave, shape and shift shape.
func DefaultConfig() Config {
	return Config{
		SampleRate:   dsp.SampleRate48k,
		BlockSize:    dsp.DefaultBufferSize,
		TuningA4:     dsp.DefaultTuningA4,
		Channel:      Omni,
		BendRange:    dsp.DefaultBendRange,
		QueueSize:    256,
		CCWave:       midi.CCSound1,
		CCShape:      midi.CCSound2,
		CCShiftShape: midi.CCSound3,
		CCLFODepth:   midi.CCModWheel,
		CCLFORate:    76,
		LFORate:      0.5,
		LFODepth:     0,
		LFOWaveform:  modulation.WaveformSine,
		LFOSeed:      1,
		LevelDB:      -3,
		Gate:         false,
		DCBlock:      true,
		Latency:      buffer.DefaultLatency,
	}
}

// Validate checks ranges and controller assignments.
func (c Config) Validate() error {
	switch {
	case c.SampleRate < dsp.MinSampleRate || c.SampleRate > dsp.MaxSampleRate:
		return fmt.Errorf("%w: sample rate %g outside [%g, %g]", ErrInvalidConfig, c.SampleRate, dsp.MinSampleRate, dsp.MaxSampleRate)
	case c.BlockSize < dsp.MinBufferSize || c.BlockSize > dsp.MaxBufferSize:
		return fmt.Errorf("%w: block size %d outside [%d, %d]", ErrInvalidConfig, c.BlockSize, dsp.MinBufferSize, dsp.MaxBufferSize)
	case c.TuningA4 < dsp.MinTuningA4 || c.TuningA4 > dsp.MaxTuningA4:
		return fmt.Errorf("%w: tuning %g Hz outside [%g, %g]", ErrInvalidConfig, c.TuningA4, dsp.MinTuningA4, dsp.MaxTuningA4)
	case c.Channel != Omni && (c.Channel < 0 || c.Channel > 15):
		return fmt.Errorf("%w: channel %d", ErrInvalidConfig, c.Channel)
	case c.BendRange < 0 || c.BendRange > dsp.MaxBendRange:
		return fmt.Errorf("%w: bend range %d outside [0, %d]", ErrInvalidConfig, c.BendRange, dsp.MaxBendRange)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue size %d", ErrInvalidConfig, c.QueueSize)
	case c.LFORate < dsp.DefaultMinRate || c.LFORate > dsp.DefaultMaxRate:
		return fmt.Errorf("%w: LFO rate %g Hz outside [%g, %g]", ErrInvalidConfig, c.LFORate, dsp.DefaultMinRate, dsp.DefaultMaxRate)
	case c.LFODepth < 0 || c.LFODepth > 1:
		return fmt.Errorf("%w: LFO depth %g outside [0, 1]", ErrInvalidConfig, c.LFODepth)
	case c.LFOOffset < -1 || c.LFOOffset > 1:
		return fmt.Errorf("%w: LFO offset %g outside [-1, 1]", ErrInvalidConfig, c.LFOOffset)
	case c.LFOPhase < 0 || c.LFOPhase >= 1:
		return fmt.Errorf("%w: LFO phase %g outside [0, 1)", ErrInvalidConfig, c.LFOPhase)
	case c.Latency < 0:
		return fmt.Errorf("%w: latency %v", ErrInvalidConfig, c.Latency)
	}

	seen := make(map[uint8]string, 5)
	for _, cc := range []struct {
		name string
		num  uint8
	}{
		{"wave", c.CCWave},
		{"shape", c.CCShape},
		{"shift shape", c.CCShiftShape},
		{"LFO depth", c.CCLFODepth},
		{"LFO rate", c.CCLFORate},
	} {
		if cc.num > 119 {
			return fmt.Errorf("%w: %s controller %d is reserved", ErrInvalidConfig, cc.name, cc.num)
		}
		if other, ok := seen[cc.num]; ok {
			return fmt.Errorf("%w: controller %d assigned to %s and %s", ErrInvalidConfig, cc.num, other, cc.name)
		}
		seen[cc.num] = cc.name
	}
	return nil
}
