package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/justyntemme/waves/pkg/dsp/oscillator"
	"github.com/justyntemme/waves/pkg/framework/debug"
	"github.com/justyntemme/waves/pkg/host"
	"github.com/justyntemme/waves/pkg/playback"
)

var errQuit = errors.New("quit")

// device reports playback failures.
type device interface {
	Err() error
}

func runPlay(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	ef := newEngineFlags(fs)
	refresh := fs.Duration("status", 200*time.Millisecond, "status line refresh interval, 0 to disable")
	if err := fs.Parse(args); err != nil {
		return err
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
	cfg := eng.Config()

	stream := host.NewStream(eng)
	stream.Fill()

	player, err := playback.NewPlayer(int(cfg.SampleRate), cfg.Latency, stream)
	if err != nil {
		return err
	}
	defer player.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("playing at %.0f Hz, block %d, latency %v", cfg.SampleRate, cfg.BlockSize, cfg.Latency)

	restore, err := rawTerminal(os.Stdin)
	if err != nil {
		return err
	}
	defer restore()
	if ef.logFile == "" {
		debug.SetOutput(rawWriter{os.Stderr})
		defer debug.SetOutput(os.Stderr)
	}

	channel := uint8(0)
	if cfg.Channel != host.Omni {
		channel = uint8(cfg.Channel)
	}
	kb := newKeyboard(eng, oscillator.Parameters(eng.Catalog()), channel, ef.initial[0], ef.initial[1], ef.initial[2])

	keys := make(chan byte, 16)
	go readKeys(os.Stdin, keys)

	fmt.Fprintln(rawWriter{stdout}, keyHelp)
	player.Start()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stream.Run(ctx)
	})
	g.Go(func() error {
		return control(ctx, kb, keys, player, stdout, *refresh)
	})
	err = g.Wait()

	restore()
	fmt.Fprintln(stdout)
	if errors.Is(err, errQuit) {
		err = nil
	}

	st, rs := eng.Stats(), stream.Stats()
	log.Info("rendered %d frames in %d blocks, %d overruns, %d dropped events, peak %.1f dB, rms %.1f dB",
		st.Frames, st.Blocks, st.Overruns, st.Dropped, st.PeakDB, st.RMSDB)
	log.Info("ring: %d underruns, %d overruns", rs.Underruns, rs.Overruns)
	fmt.Fprint(stdout, eng.Report())
	return err
}

// control applies key presses and keeps the status line current until
// the user quits, the device fails or ctx ends.
func control(ctx context.Context, kb *keyboard, keys <-chan byte, dev device, w io.Writer, refresh time.Duration) error {
	var tick <-chan time.Time
	if refresh > 0 {
		t := time.NewTicker(refresh)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok || kb.Press(key) {
				return errQuit
			}
		case <-tick:
			if err := dev.Err(); err != nil {
				return err
			}
			fmt.Fprintf(w, "\r%s", kb.Status())
		}
	}
}

// rawTerminal puts f in raw mode when it is a terminal and returns a
// function restoring it. The function may be called more than once.
func rawTerminal(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("terminal raw mode: %w", err)
	}
	restored := false
	return func() {
		if !restored {
			term.Restore(fd, state)
			restored = true
		}
	}, nil
}

// rawWriter turns line feeds into CR LF for a terminal in raw mode.
type rawWriter struct {
	w io.Writer
}

func (r rawWriter) Write(p []byte) (int, error) {
	if _, err := r.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// readKeys forwards bytes from r until it fails, then closes keys.
func readKeys(r io.Reader, keys chan<- byte) {
	defer close(keys)
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			keys <- b
		}
		if err != nil {
			return
		}
	}
}
