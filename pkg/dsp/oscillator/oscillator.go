// Package oscillator provides the morphing wavetable oscillator.
//
// A Morph scans one single-cycle table from a wavetable.Catalog. Its phase
// is stretched by a width factor derived from the shape control and the
// host LFO; whenever the stretched phase runs past the end of the cycle the
// table is read again and faded toward silence with an exponential curve
// whose steepness follows the shift-shape control. Between the plain table
// and a narrow gated pulse this gives a continuous family of timbres without
// extra tables.
//
// A Morph is driven one block at a time by a single goroutine. Parameter and
// note events must arrive between blocks; changes that swap tables or reset
// the phase are held in a Pending state and applied when the next block
// begins.
package oscillator

import "github.com/justyntemme/waves/pkg/dsp/wavetable"

const (
	// widthOctaves is the largest phase stretch, as a power of two.
	widthOctaves = 3
	// falloffOctaves maps shift shape onto the fade exponent 2^0..2^7.
	falloffOctaves = 7
)

// Morph is the oscillator state. The zero value is not usable; call New.
type Morph struct {
	rt      Runtime
	catalog *wavetable.Catalog

	w0         float32
	phase      float32
	wave       wavetable.Table
	shape      float32
	shiftShape float32
	lfo        float32
	lfoz       float32
	waveIndex  int
	pending    Pending

	ramp    Ramp
	falloff float32
}

// New creates an oscillator reading from catalog with the given runtime
// primitives. The first table of the catalog is active.
func New(rt Runtime, catalog *wavetable.Catalog) *Morph {
	m := &Morph{
		rt:      rt,
		catalog: catalog,
	}
	m.Init()
	return m
}

// Init returns the oscillator to its power-on state.
func (m *Morph) Init() {
	m.w0 = 0
	m.phase = 0
	m.wave = m.catalog.Table(0)
	m.shape = 0
	m.shiftShape = 0
	m.lfo = 0
	m.lfoz = 0
	m.waveIndex = 0
	m.pending = Idle
	m.ramp = Ramp{}
	m.falloff = 1
}

// NoteOn requests a phase reset at the next block.
func (m *Morph) NoteOn() {
	m.pending = m.pending.WithReset()
}

// NoteOff does nothing; the oscillator has no envelope.
func (m *Morph) NoteOff() {}

// SetParameter applies a raw host value to a parameter slot. Wave selection
// wraps modulo the catalog size and takes effect at the next block; shape and
// shift shape take effect immediately. Reserved and unknown slots are
// ignored.
func (m *Morph) SetParameter(id ParamID, raw uint16) {
	switch id {
	case ParamWave:
		if total := m.catalog.Total(); total > 0 {
			m.waveIndex = int(raw) % total
		}
		m.pending = m.pending.WithWaveSwap()
	case ParamShape:
		m.shape = m.rt.ParamToF32(raw)
	case ParamShiftShape:
		m.shiftShape = m.rt.ParamToF32(raw)
	case ParamReserved2, ParamReserved3, ParamReserved4, ParamReserved5, ParamReserved6:
	default:
	}
}

// Render fills out with one block of Q31 samples. pitch carries the note in
// its high byte and 1/256 semitone fine tune in its low byte; lfo is the
// host's Q31 shape modulation value for this block. No allocation.
func (m *Morph) Render(pitch uint16, lfo int32, out []int32) {
	m.begin(pitch, m.rt.Q31ToF32(lfo), len(out))
	for i := range out {
		out[i] = m.rt.F32ToQ31(m.tick())
	}
	m.end()
}

// RenderFloat is Render for float hosts: lfo is already in [-1, 1] and the
// output is written as float samples.
func (m *Morph) RenderFloat(pitch uint16, lfo float32, out []float32) {
	m.begin(pitch, lfo, len(out))
	for i := range out {
		out[i] = m.tick()
	}
	m.end()
}

// begin applies pending changes and latches the block controls.
func (m *Morph) begin(pitch uint16, lfo float32, frames int) {
	p := m.pending.Take()
	if p.WaveSwap() {
		m.wave = m.catalog.Table(m.waveIndex)
	}

	m.lfo = lfo
	m.w0 = m.rt.NoteToW0(uint8(pitch>>8), uint8(pitch))
	if p.Reset() {
		m.phase = 0
	}

	m.ramp.Begin(m.lfoz, m.lfo, frames)
	m.falloff = m.rt.FastPow2(falloffOctaves * m.shiftShape)
}

// tick produces one sample and advances phase and LFO ramp.
func (m *Morph) tick() float32 {
	width := m.Width(m.ramp.Next())
	sig := m.scan(m.phase, width)

	m.phase += m.w0
	m.phase -= float32(int32(m.phase))
	return sig
}

func (m *Morph) end() {
	m.lfoz = m.ramp.Value()
}

// Width returns the phase stretch factor for the current shape at LFO value
// lfoz: 2^(3*(shape + (1-shape)*lfoz)). It is 1 when shape and lfoz are
// zero, 8 at full shape, and never decreases as shape rises for lfoz <= 1.
func (m *Morph) Width(lfoz float32) float32 {
	return m.rt.Exp2(widthOctaves * (m.shape + (1-m.shape)*lfoz))
}

// scan is the morphing table read. Below the end of the stretched cycle it is
// a plain lookup. Past it the table is read again at p-1 and scaled by
// ((width-p)/(width-1))^falloff, fading to silence at the end of the period.
// p-1 runs up to width-1 and is not clamped; the table read wraps it.
//
// The overrun branch is only entered for width > 1, so the denominator is
// never zero. The fade gain is clamped to [0, 1] because the fast power
// approximation overshoots slightly for bases close to one.
func (m *Morph) scan(phase, width float32) float32 {
	p := phase * width
	if width <= 1 || p < 1 {
		return m.rt.ScanF(m.wave, p)
	}

	base := (width - p) / (width - 1)
	if base < 0 {
		base = 0
	} else if base > 1 {
		base = 1
	}
	gain := m.rt.FastPow(base, m.falloff)
	if gain > 1 {
		gain = 1
	}
	return m.rt.ScanF(m.wave, p-1) * gain
}

// Phase returns the phase the next block resumes from.
func (m *Morph) Phase() float32 { return m.phase }

// Increment returns the phase increment of the last block.
func (m *Morph) Increment() float32 { return m.w0 }

// LFO returns the smoothed LFO value carried into the next block.
func (m *Morph) LFO() float32 { return m.lfoz }

// LFOTarget returns the LFO value latched by the last block.
func (m *Morph) LFOTarget() float32 { return m.lfo }

// Shape returns the normalized shape control.
func (m *Morph) Shape() float32 { return m.shape }

// ShiftShape returns the normalized shift shape control.
func (m *Morph) ShiftShape() float32 { return m.shiftShape }

// WaveIndex returns the selected linear wave index. It becomes the active
// table at the next block.
func (m *Morph) WaveIndex() int { return m.waveIndex }

// Wave returns the active table.
func (m *Morph) Wave() wavetable.Table { return m.wave }

// Pending returns the changes waiting for the next block.
func (m *Morph) Pending() Pending { return m.pending }

// Catalog returns the catalog the oscillator reads from.
func (m *Morph) Catalog() *wavetable.Catalog { return m.catalog }
