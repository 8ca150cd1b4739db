package analysis

import (
	"math"
)

// FFT performs a Fast Fourier Transform on real input of a fixed
// power-of-two size. Output slices are owned by the FFT and overwritten by
// the next call.
type FFT struct {
	size       int
	window     WindowFunc
	windowData []float64
	real       []float64
	imag       []float64
	magnitude  []float64
	phase      []float64
}

// WindowFunc represents a window function type
type WindowFunc int

const (
	RectangularWindow WindowFunc = iota
	HannWindow
	BlackmanHarrisWindow
)

// NewFFT creates an FFT processor. size must be a power of two.
func NewFFT(size int, window WindowFunc) *FFT {
	fft := &FFT{
		size:       size,
		window:     window,
		windowData: make([]float64, size),
		real:       make([]float64, size),
		imag:       make([]float64, size),
		magnitude:  make([]float64, size/2+1),
		phase:      make([]float64, size/2+1),
	}

	fft.calculateWindow()

	return fft
}

// IsPowerOfTwo reports whether n is a usable FFT size.
func IsPowerOfTwo(n int) bool {
	return n > 1 && n&(n-1) == 0
}

// Size returns the transform length.
func (f *FFT) Size() int {
	return f.size
}

func (f *FFT) calculateWindow() {
	n := float64(f.size)

	switch f.window {
	case HannWindow:
		for i := 0; i < f.size; i++ {
			f.windowData[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/(n-1.0)))
		}

	case BlackmanHarrisWindow:
		a0, a1, a2, a3 := 0.35875, 0.48829, 0.14128, 0.01168
		for i := 0; i < f.size; i++ {
			f.windowData[i] = a0 - a1*math.Cos(2.0*math.Pi*float64(i)/(n-1.0)) +
				a2*math.Cos(4.0*math.Pi*float64(i)/(n-1.0)) -
				a3*math.Cos(6.0*math.Pi*float64(i)/(n-1.0))
		}

	default:
		for i := 0; i < f.size; i++ {
			f.windowData[i] = 1.0
		}
	}
}

// Forward transforms input, zero padded or truncated to the FFT size, and
// returns the magnitude and phase of bins 0..size/2.
func (f *FFT) Forward(input []float64) (magnitude, phase []float64) {
	for i := 0; i < f.size && i < len(input); i++ {
		f.real[i] = input[i] * f.windowData[i]
		f.imag[i] = 0.0
	}
	for i := len(input); i < f.size; i++ {
		f.real[i] = 0.0
		f.imag[i] = 0.0
	}

	f.fft(f.real, f.imag)

	for i := 0; i <= f.size/2; i++ {
		f.magnitude[i] = math.Sqrt(f.real[i]*f.real[i] + f.imag[i]*f.imag[i])
		f.phase[i] = math.Atan2(f.imag[i], f.real[i])
	}

	return f.magnitude, f.phase
}

// fft is an in-place iterative Cooley-Tukey transform.
func (f *FFT) fft(real, imag []float64) {
	n := f.size

	// bit reversal
	j := 0
	for i := 0; i < n; i++ {
		if i < j {
			real[i], real[j] = real[j], real[i]
			imag[i], imag[j] = imag[j], imag[i]
		}
		m := n >> 1
		for m >= 1 && j >= m {
			j -= m
			m >>= 1
		}
		j += m
	}

	for stage := 2; stage <= n; stage <<= 1 {
		theta := -2.0 * math.Pi / float64(stage)
		wReal := math.Cos(theta)
		wImag := math.Sin(theta)

		for k := 0; k < n; k += stage {
			wTempReal := 1.0
			wTempImag := 0.0

			for j := 0; j < stage/2; j++ {
				i1 := k + j
				i2 := i1 + stage/2

				tempReal := wTempReal*real[i2] - wTempImag*imag[i2]
				tempImag := wTempReal*imag[i2] + wTempImag*real[i2]

				real[i2] = real[i1] - tempReal
				imag[i2] = imag[i1] - tempImag

				real[i1] += tempReal
				imag[i1] += tempImag

				oldWReal := wTempReal
				wTempReal = oldWReal*wReal - wTempImag*wImag
				wTempImag = oldWReal*wImag + wTempImag*wReal
			}
		}
	}
}
