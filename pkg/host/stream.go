package host

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/justyntemme/waves/pkg/dsp/buffer"
)

// Stream decouples rendering from the audio device. Run renders blocks
// ahead of time into a ring on its own goroutine; the device pulls from
// the ring through Read, so a late render shows up as an underrun of
// silence instead of a stalled callback.
type Stream struct {
	engine   *Engine
	ring     *buffer.Ring
	block    []float32
	out      []float32
	target   int
	interval time.Duration
}

// NewStream wraps engine. The ring is kept between one and two latencies
// full, as set by the engine configuration.
func NewStream(engine *Engine) *Stream {
	cfg := engine.Config()
	ring := buffer.NewRing(cfg.SampleRate, cfg.Latency)

	latencySamples := int(math.Round(cfg.Latency.Seconds() * cfg.SampleRate))
	target := min(max(2*latencySamples, 2*cfg.BlockSize), ring.Size())

	return &Stream{
		engine:   engine,
		ring:     ring,
		block:    make([]float32, cfg.BlockSize),
		out:      make([]float32, 4096),
		target:   target,
		interval: max(cfg.Latency/4, time.Millisecond),
	}
}

// Fill renders blocks until the ring holds the target amount and returns
// how many blocks it rendered.
func (s *Stream) Fill() int {
	n := 0
	for s.ring.Available()+len(s.block) <= s.target && s.ring.Space() >= len(s.block) {
		s.engine.Render(s.block)
		if err := s.ring.Write(s.block); err != nil {
			break
		}
		n++
	}
	return n
}

// Run keeps the ring filled until ctx is cancelled. Cancellation is the
// normal way to stop and returns nil.
func (s *Stream) Run(ctx context.Context) error {
	s.Fill()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Fill()
		}
	}
}

// Read implements io.Reader for the device with mono float32
// little-endian samples. Missing audio is silence.
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	if len(s.out) < frames {
		s.out = make([]float32, frames)
	}

	out := s.out[:frames]
	s.ring.Read(out)
	for i, v := range out {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return 4 * frames, nil
}

// Stats returns the ring statistics.
func (s *Stream) Stats() buffer.Stats {
	return s.ring.Stats()
}
