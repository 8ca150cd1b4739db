package wavetable

import "math"

// Per-bank table counts, A through F.
const (
	CountA = 16
	CountB = 16
	CountC = 14
	CountD = 13
	CountE = 15
	CountF = 16
)

// BankCount is the number of banks in the generated catalog.
const BankCount = 6

// GenerateBanks builds the six standard banks:
//
//	A  odd-harmonic additive, sine through square
//	B  additive sawtooth with a growing harmonic count
//	C  band-limited pulses of narrowing width
//	D  formant sweeps over a harmonic comb
//	E  hard-sync sawtooth at rising slave ratios
//	F  sine wavefolder at rising drive
func GenerateBanks() []Bank {
	return []Bank{
		generate("A", CountA, oddHarmonic),
		generate("B", CountB, additiveSaw),
		generate("C", CountC, pulse),
		generate("D", CountD, formant),
		generate("E", CountE, hardSync),
		generate("F", CountF, wavefold),
	}
}

// waveFunc renders table k of a bank of n at cycle position x in [0, 1).
type waveFunc func(k, n int, x float64) float64

func generate(name string, n int, fn waveFunc) Bank {
	b := Bank{Name: name, Tables: make([]Table, n)}
	for k := 0; k < n; k++ {
		raw := make([]float64, TableSize)
		for i := range raw {
			raw[i] = fn(k, n, float64(i)/TableSize)
		}
		b.Tables[k] = normalize(raw)
	}
	return b
}

// normalize removes DC and scales the peak to 1.
func normalize(raw []float64) Table {
	var mean float64
	for _, v := range raw {
		mean += v
	}
	mean /= float64(len(raw))

	var peak float64
	for i := range raw {
		raw[i] -= mean
		peak = math.Max(peak, math.Abs(raw[i]))
	}

	t := make(Table, len(raw))
	if peak == 0 {
		return t
	}
	for i, v := range raw {
		t[i] = float32(v / peak)
	}
	return t
}

func oddHarmonic(k, _ int, x float64) float64 {
	var s float64
	for h := 1; h <= 2*k+1; h += 2 {
		s += math.Sin(2*math.Pi*float64(h)*x) / float64(h)
	}
	return s
}

func additiveSaw(k, _ int, x float64) float64 {
	var s float64
	for h := 1; h <= 2*k+1; h++ {
		s += math.Sin(2*math.Pi*float64(h)*x) / float64(h)
	}
	return s
}

func pulse(k, n int, x float64) float64 {
	const harmonics = 24
	duty := 0.5 - 0.45*float64(k)/float64(n)
	var s float64
	for h := 1; h <= harmonics; h++ {
		hf := float64(h)
		// Lanczos sigma smooths the Gibbs ripple at the edges.
		sigma := sinc(hf / (harmonics + 1))
		s += sigma * math.Sin(math.Pi*hf*duty) / hf * math.Cos(2*math.Pi*hf*x)
	}
	return s
}

func formant(k, _ int, x float64) float64 {
	const harmonics = 32
	centre := 2 + float64(k)
	var s float64
	for h := 1; h <= harmonics; h++ {
		d := (float64(h) - centre) / 1.5
		s += math.Exp(-d*d) * math.Sin(2*math.Pi*float64(h)*x)
	}
	// keep some fundamental so the pitch stays anchored
	return s + 0.5*math.Sin(2*math.Pi*x)
}

func hardSync(k, _ int, x float64) float64 {
	ratio := 1 + 0.25*float64(k)
	p := x * ratio
	saw := 2*(p-math.Floor(p)) - 1
	// fade the slave so the reset at the master cycle boundary is soft
	return saw * math.Sin(math.Pi*x)
}

func wavefold(k, _ int, x float64) float64 {
	drive := 1 + 0.5*float64(k)
	return math.Sin(0.5 * math.Pi * drive * math.Sin(2*math.Pi*x))
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
