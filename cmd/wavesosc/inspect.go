package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/justyntemme/waves/pkg/dsp/fastmath"
	"github.com/justyntemme/waves/pkg/dsp/gain"
	"github.com/justyntemme/waves/pkg/dsp/oscillator"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
	"github.com/justyntemme/waves/pkg/host"
)

func runInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	wave := fs.String("wave", "A1", `wave by name or index, or "all"`)
	shape := fs.String("shape", "0%", "shape")
	shift := fs.String("shift", "0%", "shift shape")
	size := fs.Int("size", 2048, "samples per cycle, a power of two")
	count := fs.Int("harmonics", 8, "harmonics to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	catalog := wavetable.Default()
	params := oscillator.Parameters(catalog)

	shapeRaw, err := parseRaw(params, oscillator.ParamShape, *shape)
	if err != nil {
		return err
	}
	shiftRaw, err := parseRaw(params, oscillator.ParamShiftShape, *shift)
	if err != nil {
		return err
	}
	s := float64(fastmath.ParamToF32(shapeRaw))
	ss := float64(fastmath.ParamToF32(shiftRaw))

	var spectra []host.Spectrum
	if strings.EqualFold(*wave, "all") {
		if spectra, err = host.InspectAll(context.Background(), catalog, s, ss, *size, *count); err != nil {
			return err
		}
	} else {
		raw, err := parseRaw(params, oscillator.ParamWave, *wave)
		if err != nil {
			return err
		}
		sp, err := host.Inspect(catalog, int(raw), s, ss, *size, *count)
		if err != nil {
			return err
		}
		spectra = []host.Spectrum{sp}
	}

	fmt.Fprintf(stdout, "shape %.0f%%, shift shape %.0f%%, harmonic levels in dB relative to the strongest\n", s*100, ss*100)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "WAVE\tCENTROID\t")
	for k := 1; k <= *count; k++ {
		fmt.Fprintf(tw, "H%d\t", k)
	}
	fmt.Fprintln(tw)
	for _, sp := range spectra {
		fmt.Fprintf(tw, "%s\t%.2f\t", sp.Name, sp.Centroid)
		for _, db := range relativeDB(sp.Harmonics) {
			fmt.Fprintf(tw, "%.1f\t", db)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// relativeDB converts harmonics 1.. to decibels below the strongest one.
func relativeDB(h []float64) []float32 {
	if len(h) < 2 {
		return nil
	}
	peak := 0.0
	for _, v := range h[1:] {
		peak = max(peak, v)
	}
	out := make([]float32, len(h)-1)
	for i, v := range h[1:] {
		if peak == 0 {
			out[i] = gain.LinearToDb32(0)
			continue
		}
		out[i] = gain.LinearToDb32(float32(v / peak))
	}
	return out
}
