package main

import (
	"fmt"
	"math"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/justyntemme/waves/pkg/dsp/fastmath"
	"github.com/justyntemme/waves/pkg/dsp/oscillator"
	"github.com/justyntemme/waves/pkg/framework/param"
	"github.com/justyntemme/waves/pkg/midi"
)

// noteKeys lay out one octave from C on the home row, black keys above.
const noteKeys = "awsedftgyhujk"

const (
	defaultOctave = 4
	maxOctave     = 9
	shapeStep     = 100.0 / 16 // percent
	keyCtrlC      = 0x03
	keyEscape     = 0x1b
)

// synth is the part of the engine the keyboard drives.
type synth interface {
	SendMessage(msg gomidi.Message) bool
	SetParameter(id oscillator.ParamID, raw uint16)
}

// keyboard turns key presses into MIDI messages and parameter changes.
// A terminal reports no key releases, so it plays monophonically: each
// note releases the previous one. The current wave, shape and shift shape
// live in params as plain values.
type keyboard struct {
	out     synth
	params  *param.Registry
	channel uint8
	octave  int
	note    int
	total   int
}

// newKeyboard starts from the raw values already sent to out.
func newKeyboard(out synth, params *param.Registry, channel uint8, wave, shape, shift uint16) *keyboard {
	k := &keyboard{
		out:     out,
		params:  params,
		channel: channel,
		octave:  defaultOctave,
		note:    -1,
		total:   1,
	}
	if p := params.Get(uint32(oscillator.ParamWave)); p != nil {
		k.total = int(p.Max) + 1
	}
	k.set(oscillator.ParamWave, float64(int(wave)%k.total))
	k.set(oscillator.ParamShape, float64(fastmath.ParamToF32(shape))*100)
	k.set(oscillator.ParamShiftShape, float64(fastmath.ParamToF32(shift))*100)
	return k
}

// Press handles one key and reports whether it asks to quit.
func (k *keyboard) Press(key byte) (quit bool) {
	if i := strings.IndexByte(noteKeys, key); i >= 0 {
		k.play(12*(k.octave+1) + i)
		return false
	}

	switch key {
	case 'q', 'Q', keyCtrlC, keyEscape:
		k.stop()
		return true
	case ' ':
		k.stop()
	case 'z':
		k.octave = max(k.octave-1, 0)
	case 'x':
		k.octave = min(k.octave+1, maxOctave)
	case '[':
		k.adjust(oscillator.ParamWave, -1)
	case ']':
		k.adjust(oscillator.ParamWave, 1)
	case ',':
		k.adjust(oscillator.ParamShape, -shapeStep)
	case '.':
		k.adjust(oscillator.ParamShape, shapeStep)
	case ';':
		k.adjust(oscillator.ParamShiftShape, -shapeStep)
	case '\'':
		k.adjust(oscillator.ParamShiftShape, shapeStep)
	}
	return false
}

func (k *keyboard) set(id oscillator.ParamID, plain float64) {
	if p := k.params.Get(uint32(id)); p != nil {
		p.SetPlainValue(plain)
	}
}

// adjust moves a parameter by delta plain units and sends the result.
// Waves wrap around the catalog; the percentages stop at their range.
func (k *keyboard) adjust(id oscillator.ParamID, delta float64) {
	p := k.params.Get(uint32(id))
	if p == nil {
		return
	}
	plain := p.GetPlainValue() + delta
	if id == oscillator.ParamWave {
		plain = float64((int(math.Round(plain)) + k.total) % k.total)
	}
	p.SetPlainValue(plain)
	k.out.SetParameter(id, oscillator.RawValue(id, p.GetPlainValue()))
}

func (k *keyboard) play(note int) {
	if note > 127 {
		return
	}
	if k.note >= 0 {
		k.out.SendMessage(gomidi.NoteOffVelocity(k.channel, uint8(k.note), 0))
	}
	k.out.SendMessage(gomidi.NoteOn(k.channel, uint8(note), 100))
	k.note = note
}

func (k *keyboard) stop() {
	if k.note >= 0 {
		k.out.SendMessage(gomidi.NoteOffVelocity(k.channel, uint8(k.note), 0))
		k.note = -1
	}
	k.out.SendMessage(gomidi.ControlChange(k.channel, midi.CCAllNotesOff, 0))
}

// Status describes the current note and parameters on one line.
func (k *keyboard) Status() string {
	note := "--"
	if k.note >= 0 {
		note = param.NoteFormatter(float64(k.note))
	}
	return fmt.Sprintf("oct %d  note %-4s  wave %-4s  shape %-4s  shift %-4s",
		k.octave, note,
		k.format(oscillator.ParamWave),
		k.format(oscillator.ParamShape),
		k.format(oscillator.ParamShiftShape))
}

func (k *keyboard) format(id oscillator.ParamID) string {
	p := k.params.Get(uint32(id))
	if p == nil {
		return "?"
	}
	return p.FormatValue(p.GetValue())
}

const keyHelp = `keys: a w s e d f t g y h u j k  play    z x  octave
      [ ]  wave    , .  shape    ; '  shift shape
      space  notes off    q  quit`
