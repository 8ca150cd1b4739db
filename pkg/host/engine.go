package host

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/justyntemme/waves/pkg/dsp"
	"github.com/justyntemme/waves/pkg/dsp/analysis"
	"github.com/justyntemme/waves/pkg/dsp/fastmath"
	"github.com/justyntemme/waves/pkg/dsp/gain"
	"github.com/justyntemme/waves/pkg/dsp/modulation"
	"github.com/justyntemme/waves/pkg/dsp/oscillator"
	"github.com/justyntemme/waves/pkg/dsp/utility"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
	"github.com/justyntemme/waves/pkg/framework/debug"
	"github.com/justyntemme/waves/pkg/midi"
)

const (
	// maxHeldNotes bounds the note stack; the oldest note falls off.
	maxHeldNotes = 16
	paramSlots   = int(oscillator.ParamShiftShape) + 1
	noPending    = -1
	maxPitch     = (fastmath.NoteCount - 1) << 8
	rmsWindow    = 300 * time.Millisecond
	peakHold     = 2.0  // seconds
	peakDecay    = 12.0 // dB per second
	blockSection = "render"

	// DefaultNote is the pitch before the first note on (middle C).
	DefaultNote = 60
)

// Engine renders the oscillator in fixed-size blocks and applies queued
// events and parameter changes between blocks.
//
// Render, Read and Reset belong to the audio goroutine. Send, SendMessage,
// Schedule, SetParameter, Parameter and Stats may be called from any
// goroutine.
type Engine struct {
	cfg Config
	log *debug.Logger

	osc      *oscillator.Morph
	lfo      *modulation.LFO
	stage    *gain.Stage
	dc       *utility.DCBlocker
	queue    *midi.EventQueue
	profiler *debug.BlockProfiler
	peak     *analysis.PeakMeter
	rms      *analysis.RMSMeter

	events []midi.Event
	block  []float32
	pos    int
	clock  int64

	notes [maxHeldNotes]uint8
	held  int
	note  uint8
	bend  float64
	pitch uint16

	pending [paramSlots]atomic.Int32
	values  [paramSlots]atomic.Uint32

	frames atomic.Int64
	blocks atomic.Uint64
}

// Stats is a snapshot of the engine counters.
type Stats struct {
	Frames   int64
	Blocks   uint64
	Overruns uint64
	Dropped  int
	PeakDB   float64
	HoldDB   float64
	RMSDB    float64
	Load     float64
	MaxBlock time.Duration
}

// NewEngine validates cfg and builds an engine reading catalog, or the
// default catalog when nil. A nil logger uses the package default.
func NewEngine(cfg Config, catalog *wavetable.Catalog, log *debug.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = wavetable.Default()
	}
	if log == nil {
		log = debug.Default()
	}

	rt := oscillator.NewTunedRuntime(float32(cfg.SampleRate), float32(cfg.TuningA4))
	e := &Engine{
		cfg:      cfg,
		log:      log,
		osc:      oscillator.New(rt, catalog),
		lfo:      modulation.NewLFO(cfg.SampleRate),
		stage:    gain.NewStage(cfg.LevelDB, cfg.Gate),
		queue:    midi.NewEventQueue(cfg.QueueSize),
		profiler: debug.NewBlockProfiler(blockSection, cfg.SampleRate, cfg.BlockSize),
		peak:     analysis.NewPeakMeter(cfg.SampleRate),
		rms:      analysis.NewRMSMeter(int(cfg.SampleRate * rmsWindow.Seconds())),
		events:   make([]midi.Event, 0, cfg.QueueSize),
		block:    make([]float32, cfg.BlockSize),
	}
	e.peak.SetHoldTime(peakHold)
	e.peak.SetDecayRate(peakDecay)
	if cfg.DCBlock {
		e.dc = utility.NewDCBlocker(utility.DefaultDCCutoff, cfg.SampleRate)
	}
	e.Reset()

	log.Debug("engine: %g Hz, %d-frame blocks, %d waves, channel %d",
		cfg.SampleRate, cfg.BlockSize, catalog.Total(), cfg.Channel)
	return e, nil
}

// Reset returns the engine to its initial state and drops queued events.
// The frame clock restarts at zero.
func (e *Engine) Reset() {
	e.osc.Init()

	e.lfo.Reset()
	e.lfo.Seed(e.cfg.LFOSeed)
	e.lfo.SetFrequency(e.cfg.LFORate)
	e.lfo.SetWaveform(e.cfg.LFOWaveform)
	e.lfo.SetDepth(e.cfg.LFODepth)
	e.lfo.SetOffset(e.cfg.LFOOffset)
	e.lfo.SetPhase(e.cfg.LFOPhase)

	e.stage.SetLevelDB(e.cfg.LevelDB)
	e.stage.SetOpen(false)
	e.stage.Reset()
	if e.dc != nil {
		e.dc.Reset()
	}
	e.peak.Reset()
	e.rms.Reset()
	e.profiler.Reset()
	e.queue.Clear()

	clear(e.block)
	e.pos = len(e.block)
	e.clock = 0
	e.frames.Store(0)
	e.blocks.Store(0)

	e.held = 0
	e.note = DefaultNote
	e.bend = 0
	e.updatePitch()

	for i := range e.pending {
		e.pending[i].Store(noPending)
		e.values[i].Store(0)
	}
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Catalog returns the wave catalog.
func (e *Engine) Catalog() *wavetable.Catalog {
	return e.osc.Catalog()
}

// Send queues an event for the next block.
func (e *Engine) Send(ev midi.Event) bool {
	return e.queue.Add(midi.WithOffset(ev, 0))
}

// SendMessage decodes a wire message and queues it for the next block.
// Messages the engine has no use for report false.
func (e *Engine) SendMessage(msg gomidi.Message) bool {
	ev, ok := midi.Decode(msg, 0)
	if !ok {
		return false
	}
	return e.Send(ev)
}

// Schedule queues events at absolute frame offsets counted from the last
// Reset. Each event is applied at the first block that starts at or after
// its offset. It returns how many events fit in the queue.
func (e *Engine) Schedule(events []midi.Event) int {
	return e.queue.AddMultiple(events)
}

// SetParameter sets a raw oscillator parameter value at the next block.
// Later calls before that block replace earlier ones.
func (e *Engine) SetParameter(id oscillator.ParamID, raw uint16) {
	if int(id) >= paramSlots {
		return
	}
	e.pending[id].Store(int32(raw))
}

// Parameter returns the raw value last applied to a slot. The wave slot
// reports the wrapped wave index.
func (e *Engine) Parameter(id oscillator.ParamID) uint16 {
	if int(id) >= paramSlots {
		return 0
	}
	return uint16(e.values[id].Load())
}

// Stats returns the engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Frames:   e.frames.Load(),
		Blocks:   e.blocks.Load(),
		Overruns: e.profiler.Overruns(),
		Dropped:  e.queue.Dropped(),
		PeakDB:   e.peak.GetPeakDB(),
		HoldDB:   e.peak.GetHoldDB(),
		RMSDB:    e.rms.GetRMSDB(),
		Load:     e.profiler.Load(),
	}
	if m, ok := e.profiler.GetMeasurement(blockSection); ok {
		s.MaxBlock = m.Max()
	}
	return s
}

// Report returns the block timing report.
func (e *Engine) Report() string {
	return e.profiler.AudioReport()
}

// Render fills out with audio. Blocks are always rendered at the
// configured size; output that does not line up with block boundaries is
// carried over to the next call.
func (e *Engine) Render(out []float32) {
	for len(out) > 0 {
		if e.pos == len(e.block) {
			e.renderBlock()
		}
		n := copy(out, e.block[e.pos:])
		e.pos += n
		out = out[n:]
	}
}

// Read implements io.Reader with mono float32 little-endian samples.
func (e *Engine) Read(p []byte) (int, error) {
	if len(p) < 4 {
		return 0, io.ErrShortBuffer
	}

	n := 0
	for len(p)-n >= 4 {
		if e.pos == len(e.block) {
			e.renderBlock()
		}
		for e.pos < len(e.block) && len(p)-n >= 4 {
			binary.LittleEndian.PutUint32(p[n:], math.Float32bits(e.block[e.pos]))
			e.pos++
			n += 4
		}
	}
	return n, nil
}

func (e *Engine) renderBlock() {
	start := time.Now()

	e.applyParameters()
	e.applyEvents()

	lfo := float32(e.lfo.Advance(len(e.block)))
	e.osc.RenderFloat(e.pitch, lfo, e.block)
	if e.dc != nil {
		e.dc.ProcessBuffer(e.block)
	}
	e.stage.Process(e.block)
	e.peak.Process(e.block)
	e.rms.Process(e.block)

	e.clock += int64(len(e.block))
	e.frames.Store(e.clock)
	blocks := e.blocks.Add(1)
	e.pos = 0

	if e.profiler.Done(start) {
		// log the 1st, 2nd, 4th, 8th... overrun
		if n := e.profiler.Overruns(); n&(n-1) == 0 {
			e.log.Warn("engine: block %d exceeded %v (%d overruns)", blocks, e.profiler.Period(), n)
		}
	}
}

func (e *Engine) applyParameters() {
	for i := range e.pending {
		if raw := e.pending[i].Swap(noPending); raw != noPending {
			e.setParameter(oscillator.ParamID(i), uint16(raw))
		}
	}
}

func (e *Engine) setParameter(id oscillator.ParamID, raw uint16) {
	e.osc.SetParameter(id, raw)
	if id == oscillator.ParamWave {
		raw = uint16(e.osc.WaveIndex())
	}
	e.values[id].Store(uint32(raw))
}

// applyEvents handles every queued event due at or before the current
// block start.
func (e *Engine) applyEvents() {
	until := min(e.clock+1, math.MaxInt32)
	e.events = e.queue.Drain(int32(until), e.events[:0])
	for _, ev := range e.events {
		e.handle(ev)
	}
	clear(e.events)
	e.events = e.events[:0]
}

func (e *Engine) handle(ev midi.Event) {
	if e.cfg.Channel != Omni && int(ev.Channel()) != e.cfg.Channel {
		return
	}
	if e.log.Enabled(debug.LogLevelDebug) {
		e.log.Debug("engine: frame %d: %v", e.clock, ev)
	}

	switch ev := ev.(type) {
	case midi.NoteOnEvent:
		if ev.Velocity == 0 {
			e.noteOff(ev.NoteNumber)
			return
		}
		e.noteOn(ev.NoteNumber)
	case midi.NoteOffEvent:
		e.noteOff(ev.NoteNumber)
	case midi.ControlChangeEvent:
		e.controlChange(ev.Controller, ev.Value)
	case midi.PitchBendEvent:
		e.bend = ev.NormalizedValue()
		e.updatePitch()
	}
}

// noteOn pushes a note on the stack; the newest note sounds and restarts
// the phase.
func (e *Engine) noteOn(note uint8) {
	e.release(note)
	if e.held == maxHeldNotes {
		copy(e.notes[:], e.notes[1:])
		e.held--
	}
	e.notes[e.held] = note
	e.held++

	e.note = note
	e.updatePitch()
	e.osc.NoteOn()
	e.stage.SetOpen(true)
}

// noteOff removes a note. When others are still held the most recent one
// sounds again without a phase reset.
func (e *Engine) noteOff(note uint8) {
	if !e.release(note) {
		return
	}
	e.osc.NoteOff()
	if e.held > 0 {
		e.note = e.notes[e.held-1]
		e.updatePitch()
		return
	}
	e.stage.SetOpen(false)
}

func (e *Engine) release(note uint8) bool {
	for i := 0; i < e.held; i++ {
		if e.notes[i] == note {
			copy(e.notes[i:e.held], e.notes[i+1:e.held])
			e.held--
			return true
		}
	}
	return false
}

func (e *Engine) allNotesOff(hard bool) {
	e.held = 0
	e.stage.SetOpen(false)
	if hard {
		e.stage.Reset()
	}
}

func (e *Engine) controlChange(ctrl, value uint8) {
	n := utility.ControllerToNormalized(value)

	switch ctrl {
	case e.cfg.CCWave:
		e.setParameter(oscillator.ParamWave, uint16(utility.NormalizedToRaw(n, e.osc.Catalog().Total()-1)))
	case e.cfg.CCShape:
		e.setParameter(oscillator.ParamShape, uint16(utility.NormalizedToRaw(n, fastmath.ParamMax)))
	case e.cfg.CCShiftShape:
		e.setParameter(oscillator.ParamShiftShape, uint16(utility.NormalizedToRaw(n, fastmath.ParamMax)))
	case e.cfg.CCLFODepth:
		e.lfo.SetDepth(n)
	case e.cfg.CCLFORate:
		e.lfo.SetFrequency(utility.ScaleParameterExp(n, dsp.DefaultMinRate, dsp.DefaultMaxRate))
	case midi.CCAllNotesOff:
		e.allNotesOff(false)
	case midi.CCAllSoundOff:
		e.allNotesOff(true)
	case midi.CCResetAll:
		e.bend = 0
		e.updatePitch()
		e.lfo.SetDepth(e.cfg.LFODepth)
		e.lfo.SetFrequency(e.cfg.LFORate)
	}
}

// updatePitch combines the sounding note and the bend into the pitch word.
func (e *Engine) updatePitch() {
	semis := e.bend * float64(e.cfg.BendRange)
	p := math.Round((float64(e.note) + semis) * 256)
	e.pitch = uint16(utility.ClampParameter(p, 0, maxPitch))
}
