// Package wavetable holds the read-only catalog of single-cycle waveforms the
// oscillator scans, and the bank selector that maps one linear wave index
// onto a bank and an in-bank table.
package wavetable

import "github.com/justyntemme/waves/pkg/dsp/interpolation"

// TableSize is the number of samples in one generated single-cycle table.
const TableSize = 128

// Table is one period of a waveform. Tables handed out by a Catalog are
// shared and must be treated as read-only.
type Table []float32

// ScanF reads t at a phase with linear interpolation. Nominal phases lie in
// [0, 1]; larger phases wrap by their integer part and read the cycle again.
func ScanF(t Table, phase float32) float32 {
	return interpolation.Periodic(t, phase)
}

// Bank is a named, ordered group of tables.
type Bank struct {
	Name   string
	Tables []Table
}

// Len returns the number of tables in the bank.
func (b Bank) Len() int {
	return len(b.Tables)
}
