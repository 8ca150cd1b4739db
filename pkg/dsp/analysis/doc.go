// Package analysis measures rendered audio: a radix-2 FFT with window
// functions, harmonic content of single cycles, and peak and RMS meters.
//
// Example usage:
//
//	// Harmonic magnitudes of one 1024-sample cycle
//	h := analysis.Harmonics(cycle, 16)
//	fmt.Printf("fundamental %.3f, third %.3f\n", h[1], h[3])
//
//	// Level of a render
//	peak := analysis.NewPeakMeter(48000)
//	peak.Process(block)
//	db := peak.GetPeakDB()
package analysis
