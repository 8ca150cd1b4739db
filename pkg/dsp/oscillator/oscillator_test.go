package oscillator

import (
	"math"
	"testing"

	"github.com/justyntemme/waves/pkg/dsp/fastmath"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
)

const testRate = 48000

// spyRuntime records every table read and fade evaluation.
type spyRuntime struct {
	*StandardRuntime
	scans    []float32
	overruns int
}

func (s *spyRuntime) ScanF(t wavetable.Table, phase float32) float32 {
	s.scans = append(s.scans, phase)
	return s.StandardRuntime.ScanF(t, phase)
}

func (s *spyRuntime) FastPow(x, p float32) float32 {
	s.overruns++
	return s.StandardRuntime.FastPow(x, p)
}

func (s *spyRuntime) reset() {
	s.scans = s.scans[:0]
	s.overruns = 0
}

func newSpy() (*Morph, *spyRuntime) {
	spy := &spyRuntime{StandardRuntime: NewRuntime(testRate)}
	return New(spy, wavetable.Default()), spy
}

func newMorph() *Morph {
	return New(NewRuntime(testRate), wavetable.Default())
}

var a4 = fastmath.Pitch(69, 0)

func TestInitState(t *testing.T) {
	m := newMorph()

	if m.Phase() != 0 || m.LFO() != 0 || m.Shape() != 0 || m.ShiftShape() != 0 {
		t.Error("fresh oscillator should start zeroed")
	}
	if m.Pending() != Idle {
		t.Errorf("Pending = %v, want Idle", m.Pending())
	}
	if &m.Wave()[0] != &wavetable.Default().Table(0)[0] {
		t.Error("first catalog table should be active after Init")
	}
}

func TestPhaseContinuityAcrossBlocks(t *testing.T) {
	m, spy := newSpy()
	out := make([]float32, 64)

	m.RenderFloat(a4, 0, out)
	carried := m.Phase()
	if carried < 0 || carried >= 1 {
		t.Fatalf("phase %v left [0, 1)", carried)
	}
	lastScan := spy.scans[len(spy.scans)-1]

	spy.reset()
	m.RenderFloat(a4, 0, out)

	// Width is exactly 1 here, so the scanned position is the phase itself.
	if spy.scans[0] != carried {
		t.Errorf("block 2 started at phase %v, block 1 ended at %v", spy.scans[0], carried)
	}
	want := lastScan + m.Increment()
	want -= float32(int32(want))
	if spy.scans[0] != want {
		t.Errorf("block 2 start %v is not one increment past block 1's last sample %v", spy.scans[0], lastScan)
	}
}

func TestNoteOnResetsPhaseAtNextBlock(t *testing.T) {
	m, spy := newSpy()
	out := make([]float32, 37)

	m.RenderFloat(a4, 0, out)
	if m.Phase() == 0 {
		t.Fatal("phase should have advanced")
	}

	m.NoteOn()
	if m.Phase() == 0 {
		t.Error("NoteOn must not touch the phase before the next block")
	}
	if m.Pending() != PendingReset {
		t.Errorf("Pending = %v, want PendingReset", m.Pending())
	}

	spy.reset()
	m.RenderFloat(a4, 0, out)
	if spy.scans[0] != 0 {
		t.Errorf("first sample after NoteOn read phase %v, want 0", spy.scans[0])
	}
	if m.Pending() != Idle {
		t.Errorf("Pending after block = %v, want Idle", m.Pending())
	}
}

func TestWaveSwapDeferredToBlockBoundary(t *testing.T) {
	m := newMorph()
	c := m.Catalog()
	out := make([]float32, 16)

	m.SetParameter(ParamWave, 20)
	if m.WaveIndex() != 20 {
		t.Errorf("WaveIndex = %d, want 20", m.WaveIndex())
	}
	if &m.Wave()[0] != &c.Table(0)[0] {
		t.Error("wave swapped before the block boundary")
	}
	if m.Pending() != PendingWaveSwap {
		t.Errorf("Pending = %v, want PendingWaveSwap", m.Pending())
	}

	m.RenderFloat(a4, 0, out)
	if &m.Wave()[0] != &c.Table(20)[0] {
		t.Error("wave not swapped at the block boundary")
	}
}

func TestWaveSelectWrapsAround(t *testing.T) {
	total := uint16(wavetable.Default().Total())

	render := func(raw uint16) []float32 {
		m := newMorph()
		m.SetParameter(ParamShape, 400)
		m.SetParameter(ParamWave, raw)
		out := make([]float32, 256)
		m.RenderFloat(fastmath.Pitch(57, 30), 0.2, out)
		return out
	}

	zero := render(0)
	wrapped := render(total)
	for i := range zero {
		if zero[i] != wrapped[i] {
			t.Fatalf("sample %d differs: wave %d gave %v, wave 0 gave %v", i, total, wrapped[i], zero[i])
		}
	}

	m := newMorph()
	m.SetParameter(ParamWave, total*3+7)
	if m.WaveIndex() != 7 {
		t.Errorf("WaveIndex = %d, want 7", m.WaveIndex())
	}
}

func TestParameterSlots(t *testing.T) {
	m := newMorph()

	m.SetParameter(ParamShape, fastmath.ParamMax)
	m.SetParameter(ParamShiftShape, 512)
	if m.Shape() != 1 {
		t.Errorf("Shape = %v, want 1", m.Shape())
	}
	if math.Abs(float64(m.ShiftShape())-512.0/1023.0) > 1e-6 {
		t.Errorf("ShiftShape = %v", m.ShiftShape())
	}
	if m.Pending() != Idle {
		t.Error("shape changes must not wait for a block boundary")
	}

	before := *m
	for _, id := range []ParamID{ParamReserved2, ParamReserved3, ParamReserved4, ParamReserved5, ParamReserved6, 42, 0xFFFF} {
		m.SetParameter(id, 777)
	}
	if m.shape != before.shape || m.shiftShape != before.shiftShape ||
		m.waveIndex != before.waveIndex || m.pending != before.pending {
		t.Error("reserved and unknown slots must be ignored")
	}

	m.NoteOff()
	if m.Pending() != Idle {
		t.Error("NoteOff should do nothing")
	}
}

func TestPendingBothAppliesTogether(t *testing.T) {
	m, spy := newSpy()
	out := make([]float32, 8)
	m.RenderFloat(a4, 0, out)

	m.SetParameter(ParamWave, 33)
	m.NoteOn()
	if m.Pending() != PendingBoth {
		t.Fatalf("Pending = %v, want PendingBoth", m.Pending())
	}

	spy.reset()
	m.RenderFloat(a4, 0, out)
	if spy.scans[0] != 0 {
		t.Errorf("phase not reset: %v", spy.scans[0])
	}
	if &m.Wave()[0] != &m.Catalog().Table(33)[0] {
		t.Error("wave not swapped")
	}
	if m.Pending() != Idle {
		t.Errorf("Pending = %v, want Idle", m.Pending())
	}
}

func TestLFORampEndpoints(t *testing.T) {
	m := newMorph()
	const n = 100
	out := make([]float32, n)

	m.RenderFloat(a4, 0.5, out)
	if math.Abs(float64(m.LFO())-0.5) > 1e-5 {
		t.Errorf("LFO after block = %v, want ~0.5", m.LFO())
	}
	if m.LFOTarget() != 0.5 {
		t.Errorf("LFOTarget = %v, want 0.5", m.LFOTarget())
	}

	start := m.LFO()
	m.RenderFloat(a4, -0.25, out)
	want := start + n*((-0.25-start)/n)
	if math.Abs(float64(m.LFO()-want)) > 1e-5 {
		t.Errorf("LFO after second block = %v, want ~%v", m.LFO(), want)
	}
}

func TestQ31LFOInput(t *testing.T) {
	m := newMorph()
	out := make([]int32, 32)
	m.Render(a4, fastmath.F32ToQ31(0.25), out)
	if math.Abs(float64(m.LFOTarget())-0.25) > 1e-6 {
		t.Errorf("latched LFO = %v, want 0.25", m.LFOTarget())
	}
}

func TestWidthMonotonicInShape(t *testing.T) {
	m := newMorph()
	for _, lfo := range []float32{-1, -0.5, 0, 0.3, 1} {
		prev := float32(0)
		for raw := uint16(0); raw <= fastmath.ParamMax; raw += 11 {
			m.SetParameter(ParamShape, raw)
			w := m.Width(lfo)
			if w < prev {
				t.Fatalf("lfo %v: width fell from %v to %v at shape %d", lfo, prev, w, raw)
			}
			prev = w
		}
	}

	m.SetParameter(ParamShape, 0)
	if w := m.Width(0); w != 1 {
		t.Errorf("Width at rest = %v, want exactly 1", w)
	}
	m.SetParameter(ParamShape, fastmath.ParamMax)
	if w := m.Width(0); math.Abs(float64(w)-8) > 1e-5 {
		t.Errorf("Width at full shape = %v, want 8", w)
	}
}

func TestNoOverrunAtUnitWidth(t *testing.T) {
	m, spy := newSpy()
	m.SetParameter(ParamShiftShape, fastmath.ParamMax)
	out := make([]float32, 2048)

	m.RenderFloat(fastmath.Pitch(100, 0), 0, out)
	if spy.overruns != 0 {
		t.Errorf("%d samples took the overrun branch at width 1", spy.overruns)
	}
	for i, p := range spy.scans {
		if p < 0 || p >= 1 {
			t.Fatalf("sample %d scanned phase %v outside [0, 1)", i, p)
		}
	}
}

func TestOverrunFadesToSilence(t *testing.T) {
	m, spy := newSpy()
	m.SetParameter(ParamShape, fastmath.ParamMax) // width 8
	m.SetParameter(ParamShiftShape, 0)            // near-linear fade

	// One cycle lasts 1/w0 samples; render well over one.
	out := make([]float32, 1024)
	m.RenderFloat(fastmath.Pitch(60, 0), 0, out)

	if spy.overruns == 0 {
		t.Fatal("full shape should reach the overrun branch")
	}
	for i, s := range out {
		if s < -1 || s > 1 || math.IsNaN(float64(s)) {
			t.Fatalf("sample %d = %v out of range", i, s)
		}
	}
}

func TestOverrunLookupPhaseWraps(t *testing.T) {
	m, spy := newSpy()
	m.SetParameter(ParamShape, fastmath.ParamMax) // width 8
	out := make([]float32, 2048)
	m.RenderFloat(fastmath.Pitch(60, 0), 0, out)

	var hi float32
	for _, p := range spy.scans {
		hi = max(hi, p)
	}
	if hi <= 1 || hi >= 7 {
		t.Fatalf("largest overrun lookup phase = %v, want in (1, 7)", hi)
	}

	rt := NewRuntime(testRate)
	wave := m.Wave()
	for _, p := range spy.scans {
		if p < 1 {
			continue
		}
		frac := p - float32(math.Floor(float64(p)))
		if got, want := rt.ScanF(wave, p), rt.ScanF(wave, frac); math.Abs(float64(got-want)) > 1e-5 {
			t.Fatalf("ScanF(%v) = %v, want the wrapped read %v", p, got, want)
		}
	}
}

func TestSteepFalloffGatesTail(t *testing.T) {
	energy := func(shift uint16) float64 {
		m := newMorph()
		m.SetParameter(ParamShape, fastmath.ParamMax)
		m.SetParameter(ParamShiftShape, shift)
		out := make([]float32, 4096)
		m.RenderFloat(fastmath.Pitch(60, 0), 0, out)
		var e float64
		for _, s := range out {
			e += float64(s) * float64(s)
		}
		return e
	}

	soft := energy(0)
	hard := energy(fastmath.ParamMax)
	if hard >= soft {
		t.Errorf("steep falloff energy %v should be below gentle falloff energy %v", hard, soft)
	}
}

func TestBlockConcatenation(t *testing.T) {
	setup := func() *Morph {
		m := newMorph()
		m.SetParameter(ParamWave, 17)
		m.SetParameter(ParamShape, 600)
		m.SetParameter(ParamShiftShape, 300)
		m.NoteOn()
		return m
	}
	pitch := fastmath.Pitch(64, 100)

	split := setup()
	first := make([]int32, 128)
	second := make([]int32, 128)
	split.Render(pitch, 0, first)
	split.Render(pitch, 0, second)

	whole := setup()
	both := make([]int32, 256)
	whole.Render(pitch, 0, both)

	joined := append(first, second...)
	for i := range both {
		if joined[i] != both[i] {
			t.Fatalf("sample %d: split blocks gave %d, single block gave %d", i, joined[i], both[i])
		}
	}
	if split.Phase() != whole.Phase() {
		t.Errorf("final phase differs: %v vs %v", split.Phase(), whole.Phase())
	}
}

func TestSteadyLFOBlocksMatchWithinTolerance(t *testing.T) {
	setup := func() *Morph {
		m := newMorph()
		m.SetParameter(ParamShape, 200)
		m.SetParameter(ParamShiftShape, 700)
		// settle the ramp on the target first
		m.RenderFloat(a4, 0.4, make([]float32, 64))
		m.RenderFloat(a4, 0.4, make([]float32, 64))
		m.NoteOn()
		return m
	}

	split := setup()
	a := make([]float32, 96)
	b := make([]float32, 96)
	split.RenderFloat(a4, 0.4, a)
	split.RenderFloat(a4, 0.4, b)

	whole := setup()
	both := make([]float32, 192)
	whole.RenderFloat(a4, 0.4, both)

	joined := append(a, b...)
	for i := range both {
		if math.Abs(float64(joined[i]-both[i])) > 1e-4 {
			t.Fatalf("sample %d: %v vs %v", i, joined[i], both[i])
		}
	}
}

func TestPhaseStaysInRange(t *testing.T) {
	m := newMorph()
	out := make([]float32, 333)
	for _, note := range []uint8{0, 21, 69, 127, 151, 255} {
		m.RenderFloat(fastmath.Pitch(note, 255), 0, out)
		if p := m.Phase(); p < 0 || p >= 1 {
			t.Errorf("note %d: phase %v outside [0, 1)", note, p)
		}
	}
}

func TestZeroLengthBlock(t *testing.T) {
	m := newMorph()
	m.RenderFloat(a4, 0, make([]float32, 10))
	phase := m.Phase()

	m.RenderFloat(a4, 0.9, nil)
	if m.Phase() != phase {
		t.Error("empty block must not advance the phase")
	}
	if math.IsNaN(float64(m.LFO())) || m.LFO() != 0 {
		t.Errorf("empty block moved the LFO to %v", m.LFO())
	}
}

func TestRenderDoesNotAllocate(t *testing.T) {
	m := newMorph()
	m.SetParameter(ParamShape, 500)
	m.SetParameter(ParamShiftShape, 900)
	q31 := make([]int32, 64)
	f32 := make([]float32, 64)

	allocs := testing.AllocsPerRun(200, func() {
		m.Render(a4, 1<<29, q31)
		m.RenderFloat(a4, -0.3, f32)
	})
	if allocs != 0 {
		t.Errorf("rendering allocated %v times per block", allocs)
	}
}

func BenchmarkRender(b *testing.B) {
	m := newMorph()
	m.SetParameter(ParamShape, 700)
	m.SetParameter(ParamShiftShape, 400)
	out := make([]int32, 64)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Render(a4, int32(i)<<16, out)
	}
}
