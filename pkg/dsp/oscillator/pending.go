package oscillator

// Pending records the changes requested between blocks that may only be
// applied at the start of the next block.
type Pending uint8

const (
	// Idle means nothing is waiting.
	Idle Pending = iota
	// PendingReset restarts the phase at zero.
	PendingReset
	// PendingWaveSwap switches the active table to the selected wave index.
	PendingWaveSwap
	// PendingBoth is a reset and a wave swap together.
	PendingBoth
)

// String returns the name of the state.
func (p Pending) String() string {
	switch p {
	case Idle:
		return "Idle"
	case PendingReset:
		return "PendingReset"
	case PendingWaveSwap:
		return "PendingWaveSwap"
	case PendingBoth:
		return "PendingBoth"
	default:
		return "Unknown"
	}
}

// WithReset returns the state after a note-on request.
func (p Pending) WithReset() Pending {
	switch p {
	case Idle:
		return PendingReset
	case PendingWaveSwap:
		return PendingBoth
	}
	return p
}

// WithWaveSwap returns the state after a wave selection.
func (p Pending) WithWaveSwap() Pending {
	switch p {
	case Idle:
		return PendingWaveSwap
	case PendingReset:
		return PendingBoth
	}
	return p
}

// Reset reports whether a phase reset is waiting.
func (p Pending) Reset() bool {
	return p == PendingReset || p == PendingBoth
}

// WaveSwap reports whether a wave swap is waiting.
func (p Pending) WaveSwap() bool {
	return p == PendingWaveSwap || p == PendingBoth
}

// Take returns the waiting state and moves p back to Idle.
func (p *Pending) Take() Pending {
	cur := *p
	*p = Idle
	return cur
}
