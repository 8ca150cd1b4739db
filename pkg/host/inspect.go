package host

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/waves/pkg/dsp/analysis"
	"github.com/justyntemme/waves/pkg/dsp/oscillator"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
)

// Spectrum is the harmonic content of one rendered cycle.
type Spectrum struct {
	Wave       int
	Name       string
	Shape      float64
	ShiftShape float64
	// Harmonics holds DC at index 0 and harmonic k at index k.
	Harmonics []float64
	Centroid  float64
}

// cycleRuntime advances the phase by exactly one period per size samples
// whatever the pitch.
type cycleRuntime struct {
	*oscillator.StandardRuntime
	w0 float32
}

func (r cycleRuntime) NoteToW0(uint8, uint8) float32 { return r.w0 }

// RenderCycle renders one period of a wave at the given shape and shift
// shape (both 0-1) with the LFO at rest.
func RenderCycle(catalog *wavetable.Catalog, wave int, shape, shiftShape float64, size int) []float32 {
	rt := cycleRuntime{
		StandardRuntime: oscillator.NewRuntime(float32(size)),
		w0:              1 / float32(size),
	}
	m := oscillator.New(rt, catalog)
	m.SetParameter(oscillator.ParamWave, uint16(wave))
	m.SetParameter(oscillator.ParamShape, oscillator.RawValue(oscillator.ParamShape, shape*100))
	m.SetParameter(oscillator.ParamShiftShape, oscillator.RawValue(oscillator.ParamShiftShape, shiftShape*100))

	out := make([]float32, size)
	m.RenderFloat(0, 0, out)
	return out
}

// Inspect measures the first count harmonics of one cycle of a wave. size
// must be a power of two.
func Inspect(catalog *wavetable.Catalog, wave int, shape, shiftShape float64, size, count int) (Spectrum, error) {
	if !analysis.IsPowerOfTwo(size) {
		return Spectrum{}, fmt.Errorf("host: cycle size %d is not a power of two", size)
	}
	if wave < 0 || wave >= catalog.Total() {
		return Spectrum{}, fmt.Errorf("host: wave %d outside [0, %d)", wave, catalog.Total())
	}

	cycle := RenderCycle(catalog, wave, shape, shiftShape, size)
	in := make([]float64, size)
	for i, v := range cycle {
		in[i] = float64(v)
	}

	h := analysis.Harmonics(in, count)
	return Spectrum{
		Wave:       wave,
		Name:       catalog.Name(wave),
		Shape:      shape,
		ShiftShape: shiftShape,
		Harmonics:  h,
		Centroid:   analysis.Centroid(h),
	}, nil
}

// InspectAll runs Inspect for every wave of the catalog in parallel and
// returns the spectra in wave order.
func InspectAll(ctx context.Context, catalog *wavetable.Catalog, shape, shiftShape float64, size, count int) ([]Spectrum, error) {
	out := make([]Spectrum, catalog.Total())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range out {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := Inspect(catalog, i, shape, shiftShape, size, count)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
