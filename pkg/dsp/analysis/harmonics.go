package analysis

// Harmonics returns the amplitude of harmonics 0..count of a signal that
// holds exactly one period. Index 0 is the DC offset and index k the
// amplitude of the k-th harmonic, so a full-scale sine gives 1 at index 1.
// len(cycle) must be a power of two; otherwise Harmonics returns nil.
func Harmonics(cycle []float64, count int) []float64 {
	n := len(cycle)
	if !IsPowerOfTwo(n) {
		return nil
	}
	if count > n/2 {
		count = n / 2
	}
	if count < 0 {
		count = 0
	}

	fft := NewFFT(n, RectangularWindow)
	mag, _ := fft.Forward(cycle)

	out := make([]float64, count+1)
	out[0] = mag[0] / float64(n)
	for k := 1; k <= count; k++ {
		out[k] = 2 * mag[k] / float64(n)
	}
	return out
}

// Centroid returns the amplitude-weighted mean harmonic number of h,
// ignoring DC. It is 0 for a silent cycle.
func Centroid(h []float64) float64 {
	var num, den float64
	for k := 1; k < len(h); k++ {
		num += float64(k) * h[k]
		den += h[k]
	}
	if den == 0 {
		return 0
	}
	return num / den
}
