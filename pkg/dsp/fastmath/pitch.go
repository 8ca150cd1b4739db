package fastmath

import "math"

// NoteCount is the number of entries in the note frequency table. Notes above
// the table clamp to the highest entry.
const NoteCount = 152

// PitchTable converts the 16-bit pitch word (note in the high byte, 1/256
// semitone fine tune in the low byte) to a per-sample phase increment.
type PitchTable struct {
	sampleRate float32
	recip      float32
	hz         [NoteCount]float32
}

// NewPitchTable builds the note table for the given sample rate with A4 at
// tuningA4 Hz (440 if zero).
func NewPitchTable(sampleRate, tuningA4 float32) *PitchTable {
	if tuningA4 == 0 {
		tuningA4 = 440
	}
	t := &PitchTable{
		sampleRate: sampleRate,
		recip:      1 / sampleRate,
	}
	for n := range t.hz {
		t.hz[n] = float32(float64(tuningA4) * math.Exp2((float64(n)-69)/12))
	}
	return t
}

// SampleRate returns the rate the table was built for.
func (t *PitchTable) SampleRate() float32 {
	return t.sampleRate
}

// Hz returns the frequency of a note plus fine tune, interpolating linearly
// toward the next table entry.
func (t *PitchTable) Hz(note, fine uint8) float32 {
	n := int(note)
	if n >= NoteCount-1 {
		return t.hz[NoteCount-1]
	}
	f0 := t.hz[n]
	f1 := t.hz[n+1]
	return f0 + (f1-f0)*float32(fine)*(1.0/256)
}

// W0 returns the phase increment per sample for note and fine tune.
func (t *PitchTable) W0(note, fine uint8) float32 {
	return t.Hz(note, fine) * t.recip
}

// Pitch packs a note and fine tune into the 16-bit pitch word.
func Pitch(note, fine uint8) uint16 {
	return uint16(note)<<8 | uint16(fine)
}
