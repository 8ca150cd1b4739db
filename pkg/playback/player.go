// Package playback sends a rendered stream to the default audio device.
// It is the only package that links the platform audio libraries, so the
// engine and its tests build without them.
package playback

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/waves/pkg/dsp"
)

// Player plays a mono float32 stream on the default audio device.
// Only one Player may exist per process.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewPlayer opens the audio device at sampleRate and attaches src, which
// must produce mono float32 little-endian samples.
func NewPlayer(sampleRate int, bufferSize time.Duration, src io.Reader) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: dsp.Mono,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("playback: open audio device: %w", err)
	}
	<-ready

	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(src),
	}, nil
}

// Start begins pulling from the source.
func (p *Player) Start() {
	p.player.Play()
}

// Err returns the first error the device or the source reported.
func (p *Player) Err() error {
	if err := p.player.Err(); err != nil {
		return fmt.Errorf("playback: playback: %w", err)
	}
	if err := p.ctx.Err(); err != nil {
		return fmt.Errorf("playback: audio device: %w", err)
	}
	return nil
}

// Close stops playback.
func (p *Player) Close() error {
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("playback: close player: %w", err)
	}
	return nil
}
