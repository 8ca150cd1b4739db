package host

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/justyntemme/waves/pkg/dsp"
	"github.com/justyntemme/waves/pkg/dsp/fastmath"
)

const (
	wavHeaderSize = 44
	wavFormatPCM  = 1
)

// WriteWAV writes mono samples as a PCM WAV stream with 16 or 32 bits per
// sample. 32-bit files carry the samples as Q31.
func WriteWAV(w io.Writer, sampleRate, bits int, samples []float32) error {
	if bits != 16 && bits != 32 {
		return fmt.Errorf("host: unsupported WAV bit depth %d", bits)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("host: invalid WAV sample rate %d", sampleRate)
	}

	bytesPerSample := bits / 8
	dataSize := len(samples) * bytesPerSample
	if uint64(dataSize) > math.MaxUint32-wavHeaderSize {
		return fmt.Errorf("host: %d samples do not fit in a WAV file", len(samples))
	}

	bw := bufio.NewWriter(w)
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(wavHeaderSize - 8 + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(wavFormatPCM),
		uint16(dsp.Mono),
		uint32(sampleRate),
		uint32(sampleRate * dsp.Mono * bytesPerSample),
		uint16(dsp.Mono * bytesPerSample),
		uint16(bits),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(dataSize),
	}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("host: write WAV header: %w", err)
		}
	}

	var buf [4]byte
	for _, s := range samples {
		var b []byte
		if bits == 16 {
			binary.LittleEndian.PutUint16(buf[:], uint16(toPCM16(s)))
			b = buf[:2]
		} else {
			binary.LittleEndian.PutUint32(buf[:], uint32(fastmath.F32ToQ31(s)))
			b = buf[:4]
		}
		if _, err := bw.Write(b); err != nil {
			return fmt.Errorf("host: write WAV data: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("host: write WAV data: %w", err)
	}
	return nil
}

func toPCM16(s float32) int16 {
	if s >= 1 {
		return math.MaxInt16
	}
	if s <= -1 {
		return -math.MaxInt16
	}
	return int16(math.Round(float64(s) * math.MaxInt16))
}
