package oscillator

// Ramp walks linearly from a start value toward a target over a fixed number
// of samples. Each Begin produces exactly n values through Next; once
// exhausted Next keeps returning the final value.
//
// The final value is the accumulated sum, not a snap to the target, so it can
// differ from the target by float rounding. That residue carries into the
// next block's start value.
type Ramp struct {
	value float32
	inc   float32
	left  int
}

// Begin starts a ramp of n steps. A zero-length ramp holds start.
func (r *Ramp) Begin(start, target float32, n int) {
	r.value = start
	r.left = n
	r.inc = 0
	if n > 0 {
		r.inc = (target - start) / float32(n)
	}
}

// Next returns the current value and advances one step.
func (r *Ramp) Next() float32 {
	v := r.value
	if r.left > 0 {
		r.value += r.inc
		r.left--
	}
	return v
}

// Value returns the value the next call to Next will yield.
func (r *Ramp) Value() float32 {
	return r.value
}

// Done reports whether all steps of the current ramp were consumed.
func (r *Ramp) Done() bool {
	return r.left == 0
}
