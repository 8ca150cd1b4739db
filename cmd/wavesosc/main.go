// Command wavesosc plays, renders and inspects the morphing wavetable
// oscillator.
//
// Usage:
//
//	wavesosc play    [flags]   play live from the computer keyboard
//	wavesosc render  [flags]   render a note or a MIDI file to WAV
//	wavesosc params  [flags]   list parameters and the wave catalog
//	wavesosc inspect [flags]   print the harmonics of one cycle
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/justyntemme/waves/pkg/dsp/modulation"
	"github.com/justyntemme/waves/pkg/dsp/oscillator"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
	"github.com/justyntemme/waves/pkg/framework/debug"
	"github.com/justyntemme/waves/pkg/framework/param"
	"github.com/justyntemme/waves/pkg/host"
)

const (
	logPrefix = "wavesosc"
	logFlags  = debug.FlagTime | debug.FlagLevel | debug.FlagPrefix
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			debug.Error("%v", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage(os.Stderr)
		return errors.New("no command given")
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "play":
		return runPlay(rest, stdout)
	case "render":
		return runRender(rest, stdout)
	case "params":
		return runParams(rest, stdout)
	case "inspect":
		return runInspect(rest, stdout)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return nil
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: wavesosc <command> [flags]

commands:
  play     play live from the computer keyboard
  render   render a note or a MIDI file to a WAV file
  params   list parameters and the wave catalog
  inspect  print the harmonic content of one cycle

run "wavesosc <command> -h" for the flags of a command
`)
}

// engineFlags are the flags shared by play and render.
type engineFlags struct {
	cfg      host.Config
	lfoWave  string
	wave     string
	shape    string
	shift    string
	logLevel string
	logFile  string

	// raw values of the initial wave, shape and shift shape
	initial [3]uint16
}

func newEngineFlags(fs *flag.FlagSet) *engineFlags {
	f := &engineFlags{cfg: host.DefaultConfig()}
	c := &f.cfg

	fs.Float64Var(&c.SampleRate, "rate", c.SampleRate, "sample rate in Hz")
	fs.IntVar(&c.BlockSize, "block", c.BlockSize, "block size in frames")
	fs.Float64Var(&c.TuningA4, "tuning", c.TuningA4, "frequency of A4 in Hz")
	fs.IntVar(&c.Channel, "channel", c.Channel, "MIDI channel 0-15, -1 for all")
	fs.IntVar(&c.BendRange, "bend", c.BendRange, "pitch bend range in semitones")
	fs.Float64Var(&c.LFORate, "lfo-rate", c.LFORate, "LFO rate in Hz")
	fs.Float64Var(&c.LFODepth, "lfo-depth", c.LFODepth, "LFO depth 0-1")
	fs.Float64Var(&c.LFOOffset, "lfo-offset", c.LFOOffset, "LFO offset -1 to 1")
	fs.Float64Var(&c.LFOPhase, "lfo-phase", c.LFOPhase, "LFO start phase 0-1")
	fs.Func("seed", fmt.Sprintf("seed of the random LFO waveform (default %d)", c.LFOSeed), func(s string) error {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return err
		}
		c.LFOSeed = uint32(v)
		return nil
	})
	fs.BoolVar(&c.Gate, "gate", c.Gate, "mute while no note is held")
	fs.BoolVar(&c.DCBlock, "dcblock", c.DCBlock, "remove DC from the output")
	fs.DurationVar(&c.Latency, "latency", c.Latency, "output latency")
	fs.Func("level", fmt.Sprintf("output level in dB (default %g)", c.LevelDB), func(s string) error {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return err
		}
		c.LevelDB = float32(v)
		return nil
	})

	fs.StringVar(&f.lfoWave, "lfo-wave", c.LFOWaveform.String(), "LFO waveform: sine, triangle, square, saw, random")
	fs.StringVar(&f.wave, "wave", "A1", "initial wave, by name (C3) or index")
	fs.StringVar(&f.shape, "shape", "0%", "initial shape")
	fs.StringVar(&f.shift, "shift", "0%", "initial shift shape")
	fs.StringVar(&f.logLevel, "log", "info", "log level: debug, info, warn, error, off")
	fs.StringVar(&f.logFile, "log-file", "", "append log lines to this file instead of stderr")
	return f
}

// logger returns the logger the flags select: the package default on
// stderr, or a file logger the caller closes.
func (f *engineFlags) logger() (*debug.Logger, error) {
	level, err := debug.ParseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}

	if f.logFile == "" {
		debug.SetPrefix(logPrefix)
		debug.SetFlags(logFlags)
		debug.SetLevel(level)
		return debug.Default(), nil
	}

	log, err := debug.NewFileLogger(f.logFile, logPrefix, logFlags)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	return log, nil
}

// engine builds the engine the flags describe with its initial parameters
// already queued.
func (f *engineFlags) engine(log *debug.Logger) (*host.Engine, error) {
	var err error
	if f.cfg.LFOWaveform, err = modulation.ParseWaveform(f.lfoWave); err != nil {
		return nil, err
	}

	eng, err := host.NewEngine(f.cfg, wavetable.Default(), log)
	if err != nil {
		return nil, err
	}

	params := oscillator.Parameters(eng.Catalog())
	initial := []struct {
		id    oscillator.ParamID
		value string
	}{
		{oscillator.ParamWave, f.wave},
		{oscillator.ParamShape, f.shape},
		{oscillator.ParamShiftShape, f.shift},
	}
	for i, p := range initial {
		raw, err := parseRaw(params, p.id, p.value)
		if err != nil {
			return nil, err
		}
		eng.SetParameter(p.id, raw)
		f.initial[i] = raw
	}
	return eng, nil
}

// parseRaw converts a display value to the raw value of a slot. Waves may
// also be given by index.
func parseRaw(params *param.Registry, id oscillator.ParamID, s string) (uint16, error) {
	p := params.Get(uint32(id))
	if p == nil {
		return 0, fmt.Errorf("no parameter %v", id)
	}
	if id == oscillator.ParamWave {
		if i, err := strconv.Atoi(s); err == nil {
			if i < 0 || float64(i) > p.Max {
				return 0, fmt.Errorf("wave %d outside 0..%.0f", i, p.Max)
			}
			return uint16(i), nil
		}
		s = strings.ToUpper(s)
	}
	n, err := p.ParseValue(s)
	if err != nil {
		return 0, err
	}
	return oscillator.RawValue(id, p.Denormalize(n)), nil
}
