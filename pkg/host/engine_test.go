package host

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/justyntemme/waves/pkg/dsp/fastmath"
	"github.com/justyntemme/waves/pkg/dsp/modulation"
	"github.com/justyntemme/waves/pkg/dsp/oscillator"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
	"github.com/justyntemme/waves/pkg/framework/debug"
	"github.com/justyntemme/waves/pkg/midi"
)

// testConfig is a plain unity-gain drone without DC blocking or LFO.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LevelDB = 0
	cfg.DCBlock = false
	cfg.LFODepth = 0
	return cfg
}

func newTestEngine(t testing.TB, cfg Config) *Engine {
	t.Helper()
	log := debug.New(io.Discard, "", 0)
	e, err := NewEngine(cfg, nil, log)
	require.NoError(t, err)
	return e
}

func noteOn(note uint8) midi.Event {
	return midi.NoteOnEvent{NoteNumber: note, Velocity: 100}
}

func noteOff(note uint8) midi.Event {
	return midi.NoteOffEvent{NoteNumber: note}
}

func cc(ctrl, value uint8) midi.Event {
	return midi.ControlChangeEvent{Controller: ctrl, Value: value}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockSize = 0

	_, err := NewEngine(cfg, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEngineMatchesOscillator(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg)

	out := make([]float32, 10*cfg.BlockSize)
	e.Render(out)

	m := oscillator.New(oscillator.NewRuntime(float32(cfg.SampleRate)), wavetable.Default())
	want := make([]float32, cfg.BlockSize)
	pitch := fastmath.Pitch(DefaultNote, 0)
	for b := 0; b < 10; b++ {
		m.RenderFloat(pitch, 0, want)
		got := out[b*cfg.BlockSize : (b+1)*cfg.BlockSize]
		for i := range want {
			require.InDelta(t, want[i], got[i], 1e-6, "block %d sample %d", b, i)
		}
	}
}

func TestRenderCarriesOverBlocks(t *testing.T) {
	cfg := testConfig()
	whole := newTestEngine(t, cfg)
	split := newTestEngine(t, cfg)

	want := make([]float32, 1000)
	whole.Render(want)

	got := make([]float32, 0, 1000)
	sizes := []int{7, 13, 64, 1, 100, 3}
	for i := 0; len(got) < 1000; i++ {
		n := min(sizes[i%len(sizes)], 1000-len(got))
		chunk := make([]float32, n)
		split.Render(chunk)
		got = append(got, chunk...)
	}

	assert.Equal(t, want, got)
	assert.Equal(t, int64(1024), split.Stats().Frames)
}

func TestRenderZeroLength(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.Render(nil)
	assert.Equal(t, uint64(0), e.Stats().Blocks)
}

func TestReadMatchesRender(t *testing.T) {
	cfg := testConfig()
	r := newTestEngine(t, cfg)
	f := newTestEngine(t, cfg)

	p := make([]byte, 4*300)
	n, err := r.Read(p)
	require.NoError(t, err)
	require.Equal(t, len(p), n)

	want := make([]float32, 300)
	f.Render(want)
	for i := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
		require.Equal(t, want[i], got, "sample %d", i)
	}
}

func TestReadShortBuffer(t *testing.T) {
	e := newTestEngine(t, testConfig())
	n, err := e.Read(make([]byte, 3))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.ErrShortBuffer)

	// partial frames are left unread
	n, err = e.Read(make([]byte, 10))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestReadDoesNotAllocate(t *testing.T) {
	e := newTestEngine(t, testConfig())
	p := make([]byte, 4*256)
	e.Read(p)

	allocs := testing.AllocsPerRun(100, func() {
		e.Read(p)
	})
	assert.Zero(t, allocs)
}

func TestNoteOnSetsPitchAndResetsPhase(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg)
	buf := make([]float32, cfg.BlockSize)
	e.Render(buf)
	require.NotZero(t, e.osc.Phase())

	require.True(t, e.Send(noteOn(69)))
	e.Render(buf)

	assert.Equal(t, uint16(69<<8), e.pitch)
	assert.InDelta(t, 440.0/48000.0, e.osc.Increment(), 1e-7)
	// the block started from phase zero
	assert.InDelta(t, float32(cfg.BlockSize)*e.osc.Increment(), e.osc.Phase(), 1e-4)
}

func TestLastNotePriority(t *testing.T) {
	cfg := testConfig()
	cfg.Gate = true
	e := newTestEngine(t, cfg)
	buf := make([]float32, cfg.BlockSize)

	e.Send(noteOn(60))
	e.Send(noteOn(64))
	e.Render(buf)
	assert.Equal(t, uint16(64<<8), e.pitch)
	assert.Equal(t, 2, e.held)

	e.Send(noteOff(64))
	e.Render(buf)
	assert.Equal(t, uint16(60<<8), e.pitch)
	// the gate stays open for the note still held
	assert.Greater(t, peak(buf), float32(0.5))

	e.Send(noteOff(60))
	e.Render(buf)
	assert.Equal(t, 0, e.held)
	e.Render(buf)
	assert.Zero(t, peak(buf))
	// pitch holds after release
	assert.Equal(t, uint16(60<<8), e.pitch)
}

func TestNoteOnZeroVelocityReleases(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.Send(noteOn(60))
	e.Send(midi.NoteOnEvent{NoteNumber: 60, Velocity: 0})
	e.Render(make([]float32, 64))
	assert.Equal(t, 0, e.held)
}

func TestNoteStackOverflow(t *testing.T) {
	e := newTestEngine(t, testConfig())
	for n := uint8(40); n < 40+maxHeldNotes+1; n++ {
		e.Send(noteOn(n))
	}
	e.Render(make([]float32, 64))
	assert.Equal(t, maxHeldNotes, e.held)
	assert.Equal(t, uint8(41), e.notes[0])

	// the oldest note fell off and its release is ignored
	e.Send(noteOff(40))
	e.Render(make([]float32, 64))
	assert.Equal(t, maxHeldNotes, e.held)
}

func TestGate(t *testing.T) {
	cfg := testConfig()
	cfg.Gate = true
	e := newTestEngine(t, cfg)
	buf := make([]float32, cfg.BlockSize)

	e.Render(buf)
	for i, v := range buf {
		require.Zero(t, v, "closed gate leaked at %d", i)
	}

	e.Send(noteOn(60))
	e.Render(buf)
	e.Render(buf)
	assert.Greater(t, peak(buf), float32(0.5))

	e.Send(noteOff(60))
	e.Render(buf) // fade out
	e.Render(buf)
	assert.Zero(t, peak(buf))
}

func TestAllSoundOffSilencesImmediately(t *testing.T) {
	cfg := testConfig()
	cfg.Gate = true
	e := newTestEngine(t, cfg)
	buf := make([]float32, cfg.BlockSize)

	e.Send(noteOn(60))
	e.Render(buf)
	e.Render(buf)
	require.Greater(t, peak(buf), float32(0.5))

	e.Send(cc(midi.CCAllSoundOff, 0))
	e.Render(buf)
	assert.Zero(t, peak(buf))
	assert.Equal(t, 0, e.held)
}

func TestAllNotesOffFades(t *testing.T) {
	cfg := testConfig()
	cfg.Gate = true
	e := newTestEngine(t, cfg)
	buf := make([]float32, cfg.BlockSize)

	e.Send(noteOn(60))
	e.Send(noteOn(62))
	e.Render(buf)
	e.Render(buf)

	e.Send(cc(midi.CCAllNotesOff, 0))
	e.Render(buf)
	assert.Equal(t, 0, e.held)
	assert.NotZero(t, peak(buf), "fade-out block")
	e.Render(buf)
	assert.Zero(t, peak(buf))
}

func TestPitchBend(t *testing.T) {
	tests := []struct {
		name string
		note uint8
		bend int16
		want uint16
	}{
		{"center", 60, 0, 60 << 8},
		{"full up", 60, 8191, 62 << 8},
		{"full down", 60, -8192, 58 << 8},
		{"half up", 60, 4096, 61 << 8},
		{"clamped top", 151, 8191, 151 << 8},
		{"clamped bottom", 1, -8192, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, testConfig())
			e.Send(noteOn(tt.note))
			e.Send(midi.PitchBendEvent{Value: tt.bend})
			e.Render(make([]float32, 64))
			assert.Equal(t, tt.want, e.pitch)
		})
	}
}

func TestResetAllControllers(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.Send(midi.PitchBendEvent{Value: 4096})
	e.Send(cc(1, 127))
	e.Render(make([]float32, 64))
	require.Equal(t, uint16(61<<8), e.pitch)
	require.NotZero(t, e.lfo.Value(), "mod wheel opens the LFO")

	e.Send(cc(midi.CCResetAll, 0))
	e.Render(make([]float32, 64))
	assert.Equal(t, uint16(DefaultNote<<8), e.pitch)
	assert.Zero(t, e.lfo.Value(), "depth back to the configured 0")
}

func TestControlChangeMapping(t *testing.T) {
	e := newTestEngine(t, testConfig())
	cfg := e.Config()
	last := e.Catalog().Total() - 1

	e.Send(cc(cfg.CCWave, 127))
	e.Send(cc(cfg.CCShape, 64))
	e.Send(cc(cfg.CCShiftShape, 127))
	e.Send(cc(cfg.CCLFODepth, 127))
	e.Send(cc(cfg.CCLFORate, 127))
	e.Render(make([]float32, 64))

	assert.Equal(t, uint16(last), e.Parameter(oscillator.ParamWave))
	assert.Equal(t, last, e.osc.WaveIndex())
	assert.Equal(t, e.Catalog().Table(last), e.osc.Wave())

	assert.Equal(t, uint16(516), e.Parameter(oscillator.ParamShape))
	assert.Equal(t, uint16(fastmath.ParamMax), e.Parameter(oscillator.ParamShiftShape))
	assert.Equal(t, float32(1), e.osc.ShiftShape())

	// full depth at 20 Hz: one block moves the sine 64*20/48000 of a cycle
	assert.InDelta(t, math.Sin(2*math.Pi*64*20/48000), e.lfo.Value(), 1e-9)

	e.Send(cc(cfg.CCWave, 0))
	e.Send(cc(cfg.CCShape, 0))
	e.Render(make([]float32, 64))
	assert.Equal(t, uint16(0), e.Parameter(oscillator.ParamWave))
	assert.Equal(t, float32(0), e.osc.Shape())
}

func TestWaveSwapWaitsForBlockBoundary(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg)
	first := e.Catalog().Table(0)
	target := e.Catalog().Table(20)

	e.Render(make([]float32, 10))
	e.SetParameter(oscillator.ParamWave, 20)
	e.Render(make([]float32, cfg.BlockSize-10))
	assert.Equal(t, first, e.osc.Wave(), "swapped inside a block")

	e.Render(make([]float32, 1))
	assert.Equal(t, target, e.osc.Wave())
	assert.Equal(t, uint16(20), e.Parameter(oscillator.ParamWave))
}

func TestSetParameterWraps(t *testing.T) {
	e := newTestEngine(t, testConfig())
	total := e.Catalog().Total()

	e.SetParameter(oscillator.ParamWave, uint16(total+3))
	e.SetParameter(oscillator.ParamReserved4, 77)
	e.SetParameter(oscillator.ParamID(99), 1)
	e.Render(make([]float32, 64))

	assert.Equal(t, uint16(3), e.Parameter(oscillator.ParamWave))
	assert.Equal(t, uint16(77), e.Parameter(oscillator.ParamReserved4))
	assert.Equal(t, uint16(0), e.Parameter(oscillator.ParamID(99)))
}

func TestSetParameterConcurrent(t *testing.T) {
	e := newTestEngine(t, testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e.SetParameter(oscillator.ParamShape, 512)
				e.Send(cc(e.Config().CCShiftShape, 0))
			}
		}()
	}

	buf := make([]float32, 64)
	for i := 0; i < 50; i++ {
		e.Render(buf)
	}
	wg.Wait()
	e.Render(buf)

	assert.Equal(t, uint16(512), e.Parameter(oscillator.ParamShape))
}

func TestChannelFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Channel = 1
	e := newTestEngine(t, cfg)

	e.Send(noteOn(60))
	e.Render(make([]float32, 64))
	assert.Equal(t, 0, e.held)

	e.Send(midi.NoteOnEvent{BaseEvent: midi.BaseEvent{EventChannel: 1}, NoteNumber: 60, Velocity: 1})
	e.Render(make([]float32, 64))
	assert.Equal(t, 1, e.held)
}

func TestScheduledEventsApplyAtBlockStart(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg)

	n := e.Schedule([]midi.Event{
		midi.NoteOnEvent{BaseEvent: midi.BaseEvent{Offset: 100}, NoteNumber: 72, Velocity: 90},
		midi.NoteOffEvent{BaseEvent: midi.BaseEvent{Offset: 128}, NoteNumber: 72},
	})
	require.Equal(t, 2, n)

	e.Render(make([]float32, 128)) // blocks at 0 and 64
	assert.Equal(t, 0, e.held)
	assert.Equal(t, uint16(DefaultNote<<8), e.pitch)

	// the block at 128 applies both: the note on is late, the release on time
	e.Render(make([]float32, 64))
	assert.Equal(t, uint16(72<<8), e.pitch)
	assert.Equal(t, 0, e.held)
}

func TestSendMessage(t *testing.T) {
	e := newTestEngine(t, testConfig())

	assert.True(t, e.SendMessage(gomidi.NoteOn(0, 67, 100)))
	assert.False(t, e.SendMessage(gomidi.ProgramChange(0, 4)))
	e.Render(make([]float32, 64))
	assert.Equal(t, uint16(67<<8), e.pitch)
}

func TestStats(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 2
	e := newTestEngine(t, cfg)

	assert.True(t, e.Send(noteOn(60)))
	assert.True(t, e.Send(noteOn(61)))
	assert.False(t, e.Send(noteOn(62)))

	e.Render(make([]float32, 640))
	s := e.Stats()
	assert.Equal(t, int64(640), s.Frames)
	assert.Equal(t, uint64(10), s.Blocks)
	assert.Equal(t, 1, s.Dropped)
	assert.Less(t, s.PeakDB, 0.1)
	assert.Greater(t, s.PeakDB, -6.0)
	assert.Less(t, s.RMSDB, s.PeakDB)
	assert.GreaterOrEqual(t, s.HoldDB, s.PeakDB)
	assert.Positive(t, s.MaxBlock)
	assert.Contains(t, e.Report(), "render")
}

func TestStatsHoldOutlastsPeak(t *testing.T) {
	cfg := testConfig()
	cfg.Gate = true
	e := newTestEngine(t, cfg)

	e.Send(noteOn(60))
	e.Render(make([]float32, int(cfg.SampleRate/10)))
	e.Send(noteOff(60))
	e.Render(make([]float32, int(cfg.SampleRate)))

	// a second of silence decays the peak by about 12 dB while the hold
	// keeps the level of the note
	s := e.Stats()
	assert.InDelta(t, s.HoldDB-12, s.PeakDB, 1)
}

func TestResetRestartsClock(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg)
	first := make([]float32, 200)
	e.Render(first)

	e.Send(noteOn(80))
	e.Reset()
	again := make([]float32, 200)
	e.Render(again)

	assert.Equal(t, first, again)
	assert.Equal(t, int64(256), e.Stats().Frames)
	assert.Equal(t, uint64(4), e.Stats().Blocks)
}

func TestResetClearsStats(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.Render(make([]float32, 640))
	require.Equal(t, uint64(10), e.Stats().Blocks)

	e.Reset()
	s := e.Stats()
	assert.Zero(t, s.Frames)
	assert.Zero(t, s.Blocks)
	assert.Zero(t, s.Overruns)
	assert.Zero(t, s.MaxBlock)
	assert.True(t, math.IsInf(s.PeakDB, -1))

	e.Render(make([]float32, 100))
	s = e.Stats()
	assert.Equal(t, int64(128), s.Frames)
	assert.Equal(t, uint64(2), s.Blocks)
}

func TestLFOStartPhaseAndOffset(t *testing.T) {
	cfg := testConfig()
	cfg.LFODepth = 0.5
	cfg.LFOWaveform = modulation.WaveformSawtooth
	cfg.LFORate = 1

	render := func(cfg Config) []float32 {
		e := newTestEngine(t, cfg)
		e.SetParameter(oscillator.ParamShape, 512)
		out := make([]float32, 4*cfg.BlockSize)
		e.Render(out)
		return out
	}

	base := render(cfg)
	assert.Equal(t, base, render(cfg))

	shifted := cfg
	shifted.LFOPhase = 0.25
	assert.NotEqual(t, base, render(shifted))

	offset := cfg
	offset.LFOOffset = 0.5
	assert.NotEqual(t, base, render(offset))
}

func TestLFOSeedRepeats(t *testing.T) {
	cfg := testConfig()
	cfg.LFODepth = 1
	cfg.LFOWaveform = modulation.WaveformRandom
	cfg.LFORate = 50
	cfg.LFOSeed = 7

	render := func(cfg Config) []float32 {
		e := newTestEngine(t, cfg)
		e.SetParameter(oscillator.ParamShape, 512)
		out := make([]float32, 64*cfg.BlockSize)
		e.Render(out)
		return out
	}

	first := render(cfg)
	assert.Equal(t, first, render(cfg))

	other := cfg
	other.LFOSeed = 8
	assert.NotEqual(t, first, render(other))
}

func TestOutputBounded(t *testing.T) {
	cfg := testConfig()
	cfg.LFODepth = 1
	cfg.LFORate = 20
	e := newTestEngine(t, cfg)

	e.SetParameter(oscillator.ParamShape, 700)
	e.SetParameter(oscillator.ParamShiftShape, 300)
	for _, wave := range []uint16{0, 20, 40, 60, 89} {
		e.SetParameter(oscillator.ParamWave, wave)
		buf := make([]float32, 4096)
		e.Render(buf)
		for i, v := range buf {
			require.False(t, math.IsNaN(float64(v)), "wave %d sample %d", wave, i)
			require.LessOrEqual(t, float32(math.Abs(float64(v))), float32(1), "wave %d sample %d", wave, i)
		}
	}
}

func BenchmarkEngineRead(b *testing.B) {
	e := newTestEngine(b, testConfig())
	p := make([]byte, 4*512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Read(p)
	}
}

func peak(buf []float32) float32 {
	var p float32
	for _, v := range buf {
		if a := float32(math.Abs(float64(v))); a > p {
			p = a
		}
	}
	return p
}
