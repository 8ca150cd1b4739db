package debug

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler collects timing statistics for named sections.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	count       uint64
	totalTime   time.Duration
	minTime     time.Duration
	maxTime     time.Duration
	lastTime    time.Duration
	samples     []time.Duration
	sampleIndex int
}

// NewProfiler creates a profiler keeping the last maxSamples timings of
// each section for percentiles.
func NewProfiler(maxSamples int) *Profiler {
	return &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   max(maxSamples, 1),
	}
}

// Start begins timing a named section. Call the returned func to stop.
func (p *Profiler) Start(name string) func() {
	start := time.Now()

	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of a function.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record stores one timing. After the first record of a name it does not
// allocate.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			minTime: elapsed,
			maxTime: elapsed,
			samples: make([]time.Duration, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed

	if elapsed < m.minTime {
		m.minTime = elapsed
	}
	if elapsed > m.maxTime {
		m.maxTime = elapsed
	}

	m.samples[m.sampleIndex] = elapsed
	m.sampleIndex = (m.sampleIndex + 1) % len(m.samples)
}

// GetMeasurement returns a snapshot of the measurement for a named section.
func (p *Profiler) GetMeasurement(name string) (*Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return nil, false
	}
	return m.snapshot(), true
}

// GetAllMeasurements returns snapshots of all measurements.
func (p *Profiler) GetAllMeasurements() map[string]*Measurement {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]*Measurement, len(p.measurements))
	for k, v := range p.measurements {
		result[k] = v.snapshot()
	}
	return result
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.measurements = make(map[string]*Measurement)
}

// Report formats every measurement, sorted by name.
func (p *Profiler) Report() string {
	measurements := p.GetAllMeasurements()

	if len(measurements) == 0 {
		return "No measurements recorded"
	}

	names := make([]string, 0, len(measurements))
	for name := range measurements {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	sb.WriteString("==================\n\n")

	for _, name := range names {
		m := measurements[name]
		fmt.Fprintf(&sb, "%s:\n", name)
		fmt.Fprintf(&sb, "  Count:   %d\n", m.count)
		fmt.Fprintf(&sb, "  Total:   %v\n", m.totalTime)
		fmt.Fprintf(&sb, "  Average: %v\n", m.Average())
		fmt.Fprintf(&sb, "  Min:     %v\n", m.minTime)
		fmt.Fprintf(&sb, "  Max:     %v\n", m.maxTime)
		fmt.Fprintf(&sb, "  p99:     %v\n", m.Percentile(99))
		fmt.Fprintf(&sb, "  Last:    %v\n\n", m.lastTime)
	}

	return sb.String()
}

func (m *Measurement) snapshot() *Measurement {
	c := *m
	c.samples = slices.Clone(m.samples)
	return &c
}

// Max returns the longest timing.
func (m *Measurement) Max() time.Duration { return m.maxTime }

// Average returns the average time for this measurement.
func (m *Measurement) Average() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.totalTime / time.Duration(m.count)
}

// Percentile returns the p-th percentile (0-100) of the retained timings.
func (m *Measurement) Percentile(p float64) time.Duration {
	n := len(m.samples)
	if m.count < uint64(n) {
		n = int(m.count)
	}
	if n == 0 {
		return 0
	}

	recent := slices.Clone(m.samples[:n])
	slices.Sort(recent)

	p = min(max(p, 0), 100)
	return recent[int(float64(n-1)*p/100.0)]
}

// BlockProfiler times fixed-size audio blocks against their real-time
// period and counts the blocks that missed it.
type BlockProfiler struct {
	*Profiler
	name       string
	blockSize  int
	sampleRate float64
	period     time.Duration
	overruns   atomic.Uint64
}

// NewBlockProfiler creates a profiler for blocks of blockSize frames at
// sampleRate, recording under name.
func NewBlockProfiler(name string, sampleRate float64, blockSize int) *BlockProfiler {
	return &BlockProfiler{
		Profiler:   NewProfiler(1000),
		name:       name,
		blockSize:  blockSize,
		sampleRate: sampleRate,
		period:     time.Duration(math.Round(float64(blockSize) / sampleRate * float64(time.Second))),
	}
}

// Period returns the real-time duration of one block.
func (b *BlockProfiler) Period() time.Duration {
	return b.period
}

// Done records a block that began at start and reports whether it took
// longer than the block period.
func (b *BlockProfiler) Done(start time.Time) bool {
	elapsed := time.Since(start)
	b.Record(b.name, elapsed)
	if elapsed > b.period {
		b.overruns.Add(1)
		return true
	}
	return false
}

// Reset clears the block timings and the overrun count.
func (b *BlockProfiler) Reset() {
	b.Profiler.Reset()
	b.overruns.Store(0)
}

// Overruns returns how many blocks exceeded the period.
func (b *BlockProfiler) Overruns() uint64 {
	return b.overruns.Load()
}

// Load returns the average block time as a percentage of the period.
func (b *BlockProfiler) Load() float64 {
	m, ok := b.GetMeasurement(b.name)
	if !ok || b.period <= 0 {
		return 0
	}
	return float64(m.Average()) / float64(b.period) * 100.0
}

// AudioReport appends block statistics to Report.
func (b *BlockProfiler) AudioReport() string {
	var sb strings.Builder
	sb.WriteString(b.Report())

	sb.WriteString("\nAudio Processing Stats:\n")
	fmt.Fprintf(&sb, "  Sample Rate:  %.0f Hz\n", b.sampleRate)
	fmt.Fprintf(&sb, "  Block Size:   %d samples\n", b.blockSize)
	fmt.Fprintf(&sb, "  Block Period: %v\n", b.period)
	fmt.Fprintf(&sb, "  CPU Load:     %.2f%%\n", b.Load())
	fmt.Fprintf(&sb, "  Overruns:     %d\n", b.Overruns())

	return sb.String()
}
