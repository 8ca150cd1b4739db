// Package buffer provides the lock-free sample ring that sits between the
// render goroutine and the audio device.
package buffer

import (
	"errors"
	"math"
	"sync/atomic"
	"time"
)

// ErrOverrun is returned by Write when the ring has no room for the block.
var ErrOverrun = errors.New("buffer: overrun")

const (
	// DefaultLatency is the write-ahead distance used by the player.
	DefaultLatency = 50 * time.Millisecond

	minRingSize = 256
)

// Ring is a single-producer single-consumer circular buffer of mono
// samples. It starts with a write-ahead gap of silence so the producer can
// absorb scheduling and garbage collection pauses before the consumer
// starves.
type Ring struct {
	data       []float32
	readPos    atomic.Uint64
	writePos   atomic.Uint64
	size       uint32
	mask       uint32
	sampleRate float64

	underruns atomic.Uint64
	overruns  atomic.Uint64
}

// Stats provides health monitoring information.
type Stats struct {
	Underruns      uint64
	Overruns       uint64
	FillPercentage float32
	CurrentLatency time.Duration
}

// NewRing creates a ring for sampleRate that keeps latency of audio ahead
// of the reader. Capacity is four times the latency, at least 256 samples,
// rounded up to a power of two.
func NewRing(sampleRate float64, latency time.Duration) *Ring {
	latencySamples := uint32(math.Round(latency.Seconds() * sampleRate))
	size := nextPowerOf2(max(latencySamples*4, minRingSize))

	r := &Ring{
		data:       make([]float32, size),
		size:       size,
		mask:       size - 1,
		sampleRate: sampleRate,
	}
	r.writePos.Store(uint64(latencySamples))
	return r
}

// Size returns the capacity in samples.
func (r *Ring) Size() int {
	return int(r.size)
}

// Write appends samples. It writes nothing and returns ErrOverrun when the
// whole block does not fit.
func (r *Ring) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	writePos := r.writePos.Load()
	readPos := r.readPos.Load()
	if r.availableSpace(readPos, writePos) < uint32(len(samples)) {
		r.overruns.Add(1)
		return ErrOverrun
	}

	remaining := len(samples)
	srcOffset := 0
	for remaining > 0 {
		dstIdx := uint32(writePos) & r.mask
		copySize := min(remaining, int(r.size-dstIdx))

		copy(r.data[dstIdx:dstIdx+uint32(copySize)], samples[srcOffset:srcOffset+copySize])

		srcOffset += copySize
		remaining -= copySize
		writePos += uint64(copySize)
	}

	r.writePos.Store(writePos)
	return nil
}

// Read fills output from the ring and returns how many samples were real.
// A short read counts an underrun and the rest of output is silence.
func (r *Ring) Read(output []float32) int {
	if len(output) == 0 {
		return 0
	}

	readPos := r.readPos.Load()
	writePos := r.writePos.Load()

	toRead := len(output)
	if available := r.availableData(readPos, writePos); available < uint32(toRead) {
		toRead = int(available)
		r.underruns.Add(1)
	}

	remaining := toRead
	dstOffset := 0
	for remaining > 0 {
		srcIdx := uint32(readPos) & r.mask
		copySize := min(remaining, int(r.size-srcIdx))

		copy(output[dstOffset:dstOffset+copySize], r.data[srcIdx:srcIdx+uint32(copySize)])

		dstOffset += copySize
		remaining -= copySize
		readPos += uint64(copySize)
	}
	r.readPos.Store(readPos)

	clear(output[toRead:])
	return toRead
}

// Space returns how many samples can be written now.
func (r *Ring) Space() int {
	return int(r.availableSpace(r.readPos.Load(), r.writePos.Load()))
}

// Available returns how many samples can be read now.
func (r *Ring) Available() int {
	return int(r.availableData(r.readPos.Load(), r.writePos.Load()))
}

// Stats returns current buffer statistics.
func (r *Ring) Stats() Stats {
	readPos := r.readPos.Load()
	writePos := r.writePos.Load()
	available := r.availableData(readPos, writePos)

	return Stats{
		Underruns:      r.underruns.Load(),
		Overruns:       r.overruns.Load(),
		FillPercentage: float32(available) / float32(r.size) * 100.0,
		CurrentLatency: r.samplesToDuration(uint64(available)),
	}
}

func (r *Ring) samplesToDuration(n uint64) time.Duration {
	if r.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(n) / r.sampleRate * float64(time.Second))
}

// availableSpace calculates how many samples can be written.
func (r *Ring) availableSpace(readPos, writePos uint64) uint32 {
	used := writePos - readPos
	if used >= uint64(r.size) {
		return 0
	}
	return r.size - uint32(used)
}

// availableData calculates how many samples can be read.
func (r *Ring) availableData(readPos, writePos uint64) uint32 {
	if writePos < readPos {
		return 0
	}
	available := writePos - readPos
	if available > uint64(r.size) {
		return r.size
	}
	return uint32(available)
}

// nextPowerOf2 rounds up to the next power of 2.
func nextPowerOf2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}
