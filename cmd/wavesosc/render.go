package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/justyntemme/waves/pkg/framework/debug"
	"github.com/justyntemme/waves/pkg/framework/param"
	"github.com/justyntemme/waves/pkg/host"
	"github.com/justyntemme/waves/pkg/midi"
)

// tailSeconds is rendered after the last event of a MIDI file.
const tailSeconds = 1.0

func runRender(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	ef := newEngineFlags(fs)
	out := fs.String("out", "wavesosc.wav", "output WAV file")
	seconds := fs.Float64("seconds", 2, "length in seconds, 0 to follow the MIDI file")
	bits := fs.Int("bits", 16, "bits per sample: 16 or 32")
	note := fs.String("note", "C4", "note to hold when no MIDI file is given")
	smfPath := fs.String("smf", "", "Standard MIDI File to render instead of a single note")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rate := ef.cfg.SampleRate
	var events []midi.Event
	if *smfPath != "" {
		var err error
		if events, err = readSMF(*smfPath, rate); err != nil {
			return err
		}
		ef.cfg.QueueSize = max(ef.cfg.QueueSize, len(events))
	} else {
		n, err := param.NoteParser(*note)
		if err != nil {
			return err
		}
		if n < 0 || n > 127 {
			return fmt.Errorf("note %s outside the MIDI range", *note)
		}
		events = []midi.Event{midi.NoteOnEvent{NoteNumber: uint8(n), Velocity: 100}}
	}

	frames := int(math.Round(*seconds * rate))
	if *seconds <= 0 {
		if *smfPath == "" {
			return errors.New("length must be positive without a MIDI file")
		}
		last := 0
		if len(events) > 0 {
			last = int(events[len(events)-1].SampleOffset())
		}
		frames = last + int(tailSeconds*rate)
	}

	log, err := ef.logger()
	if err != nil {
		return err
	}
	defer log.Close()

	eng, err := ef.engine(log)
	if err != nil {
		return err
	}
	if n := eng.Schedule(events); n < len(events) {
		log.Warn("render: %d of %d events did not fit the queue", len(events)-n, len(events))
	}

	prof := debug.NewProfiler(1)
	samples := make([]float32, frames)
	prof.Time("render", func() {
		eng.Render(samples)
	})
	debug.LogBufferStats(log, samples, *out)

	stop := prof.Start("write")
	err = writeFile(*out, func(w io.Writer) error {
		return host.WriteWAV(w, int(rate), *bits, samples)
	})
	stop()
	if err != nil {
		return err
	}
	log.Debug("render: timings\n%s", prof.Report())

	st := eng.Stats()
	fmt.Fprintf(stdout, "%s: %d frames at %.0f Hz, %d-bit, peak %.1f dB\n", *out, frames, rate, *bits, st.PeakDB)
	return nil
}

func readSMF(path string, sampleRate float64) ([]midi.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return midi.ReadSMF(bufio.NewReader(f), sampleRate)
}

// writeFile creates path and hands it to write, reporting the first error
// of writing or closing.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
