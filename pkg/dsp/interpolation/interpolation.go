// Package interpolation provides fractional-position reads over sample tables.
package interpolation

// Linear performs linear interpolation between two samples.
// frac is the fractional position between y0 and y1 (0.0 to 1.0).
func Linear(y0, y1, frac float32) float32 {
	return y0 + (y1-y0)*frac
}

// Split maps a normalized position in [0, 1] onto a table of n cells,
// returning the integer cell and the fraction within it. Positions outside
// [0, 1] are clamped, so i is always in [0, n-1].
func Split(pos float32, n int) (i int, frac float32) {
	if pos <= 0 {
		return 0, 0
	}
	if pos >= 1 {
		return n - 1, 1
	}
	x := pos * float32(n)
	i = int(x)
	if i >= n {
		// float rounding of pos just below 1
		return n - 1, 1
	}
	return i, x - float32(i)
}

// Wrap folds a phase into [0, 1) by dropping its integer part.
func Wrap(phase float32) float32 {
	w := phase - float32(int64(phase))
	if w < 0 {
		w++
	}
	if w >= 1 {
		return 0
	}
	return w
}

// Periodic reads a single-cycle table at a phase with linear interpolation.
// The phase wraps by its integer part and the cell after the last sample
// interpolates back toward the first.
func Periodic(table []float32, phase float32) float32 {
	n := len(table)
	if n == 0 {
		return 0
	}
	i, frac := Split(Wrap(phase), n)
	j := i + 1
	if j == n {
		j = 0
	}
	return Linear(table[i], table[j], frac)
}
