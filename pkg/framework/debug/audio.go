package debug

import (
	"fmt"
	"math"

	"github.com/justyntemme/waves/pkg/dsp"
)

// AudioAnalyzer checks rendered buffers for broken output.
type AudioAnalyzer struct {
	ClippingThreshold float32
	DCThreshold       float32
	SilenceThreshold  float32
}

// NewAudioAnalyzer creates a new audio analyzer with default settings.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		ClippingThreshold: dsp.ClipThreshold,
		DCThreshold:       0.01,
		SilenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	Silent         bool
	NaNCount       int
	InfCount       int
	ZeroCrossings  int
}

// Analyze scans buffer once. NaN and infinite samples are counted and left
// out of the level statistics.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(buffer)}

	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	var lastSample float32
	valid := 0

	for _, sample := range buffer {
		f := float64(sample)
		if math.IsNaN(f) {
			result.NaNCount++
			continue
		}
		if math.IsInf(f, 0) {
			result.InfCount++
			continue
		}

		absSample := sample
		if absSample < 0 {
			absSample = -absSample
		}
		if absSample > result.Peak {
			result.Peak = absSample
		}
		if absSample >= a.ClippingThreshold {
			result.ClippedSamples++
		}

		sum += f
		sumSquares += f * f

		if valid > 0 && (lastSample < 0) != (sample < 0) {
			result.ZeroCrossings++
		}
		lastSample = sample
		valid++
	}

	if valid > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(valid)))
		result.DC = float32(sum / float64(valid))
	}
	result.Silent = result.RMS < a.SilenceThreshold

	return result
}

// Issues describes what is wrong with a result, one line per problem.
func (a *AudioAnalyzer) Issues(r AnalysisResult, name string) []string {
	var issues []string

	if r.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN values", name, r.NaNCount))
	}
	if r.InfCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d infinite values", name, r.InfCount))
	}
	if r.ClippedSamples > 0 {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, r.ClippedSamples))
	}
	if math.Abs(float64(r.DC)) > float64(a.DCThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, r.DC))
	}
	if r.Silent && r.Samples > 0 {
		issues = append(issues, fmt.Sprintf("%s: silent", name))
	}

	return issues
}

// LogBufferStats logs statistics and issues of a buffer through l.
func LogBufferStats(l *Logger, buffer []float32, name string) {
	a := NewAudioAnalyzer()
	r := a.Analyze(buffer)

	l.Info("%s: %d samples, peak %.3f, rms %.3f, dc %.5f, %d zero crossings",
		name, r.Samples, r.Peak, r.RMS, r.DC, r.ZeroCrossings)
	for _, issue := range a.Issues(r, name) {
		l.Warn("%s", issue)
	}
}
