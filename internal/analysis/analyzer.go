// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"

	applog "vizor/internal/log"
	"vizor/pkg/bitint"
)

// Decibel range mapped onto the byte spectrum. Magnitudes at or below
// minDecibels quantize to 0, at or above maxDecibels to 255.
const (
	minDecibels = -100.0
	maxDecibels = -30.0
)

// Pre-allocated buffers for spectrum analysis. The mutex guards the
// published snapshots (freqBytes, timeData) and the smoothing state.
type analyzerWorkspace struct {
	input     []float64    // Windowed, normalized input signal.
	fftOutput []complex128 // FFT complex results.
	window    []float64    // Pre-calculated window coefficients.
	smoothed  []float64    // Normalized [0,1] magnitudes after temporal smoothing.
	freqBytes []byte       // Published frequency snapshot, one byte per bin.
	timeData  []float64    // Published time-domain snapshot in [-1,1].
	mu        sync.RWMutex
}

// SpectrumAnalyzer turns raw capture buffers into per-frame snapshots for
// the visualizers: a byte-quantized (0-255) frequency magnitude row and a
// normalized time-domain amplitude window. Snapshot lengths are fixed at
// construction (binCount = fftSize/2 bins, fftSize time samples) and never
// change for the lifetime of the analyzer, so renderers can size their
// buffers once.
//
// Process is called from the real-time capture callback and must not
// allocate. Readers use the *Into variants to stay allocation-free too.
type SpectrumAnalyzer struct {
	fftCalculator *fourier.FFT
	fftSize       int
	binCount      int
	sampleRate    float64
	smoothing     float64     // Temporal smoothing factor in [0,1).
	frozen        atomic.Bool // When set, Process leaves the snapshots untouched.
	workspace     analyzerWorkspace
}

// NewSpectrumAnalyzer validates the configuration and pre-allocates every
// buffer Process will touch. fftSize must be a power of 2; smoothing is the
// fraction of the previous frame kept per update (0 = no smoothing).
func NewSpectrumAnalyzer(fftSize int, sampleRate, smoothing float64, windowType WindowFunc) (*SpectrumAnalyzer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if smoothing < 0 || smoothing >= 1 {
		return nil, fmt.Errorf("smoothing factor must be in [0,1), got %f", smoothing)
	}

	windowCoeffs := make([]float64, fftSize)
	applyWindow(windowCoeffs, windowType)

	binCount := fftSize / 2

	applog.Infof("Analysis: Initializing SpectrumAnalyzer (Size: %d, SampleRate: %.1f Hz, Smoothing: %.2f)", fftSize, sampleRate, smoothing)

	return &SpectrumAnalyzer{
		fftCalculator: fourier.NewFFT(fftSize),
		fftSize:       fftSize,
		binCount:      binCount,
		sampleRate:    sampleRate,
		smoothing:     smoothing,
		workspace: analyzerWorkspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, fftSize/2+1),
			window:    windowCoeffs,
			smoothed:  make([]float64, binCount),
			freqBytes: make([]byte, binCount),
			timeData:  make([]float64, fftSize),
		},
	}, nil
}

// Process analyzes one capture buffer and republishes both snapshots.
// Shorter buffers are zero-padded; a frozen analyzer drops the buffer so
// the last published snapshots persist until Resume.
func (a *SpectrumAnalyzer) Process(inputBuffer []int32) {
	if a.frozen.Load() {
		return
	}

	a.workspace.mu.Lock()

	const normFactor = 1.0 / float64(0x80000000) // int32 to [-1.0, 1.0).
	inputLen := len(inputBuffer)
	for i := range a.fftSize {
		if i < inputLen {
			v := float64(inputBuffer[i]) * normFactor
			a.workspace.timeData[i] = v
			a.workspace.input[i] = v * a.workspace.window[i]
		} else {
			a.workspace.timeData[i] = 0
			a.workspace.input[i] = 0
		}
	}

	a.fftCalculator.Coefficients(a.workspace.fftOutput, a.workspace.input)

	// Scale magnitudes to decibels, clamp into [minDecibels, maxDecibels],
	// smooth against the previous frame and quantize to a byte. This is the
	// 0-255 range the renderers and the wire format are built around.
	scale := 2.0 / float64(a.fftSize)
	for i := range a.binCount {
		mag := cmplx.Abs(a.workspace.fftOutput[i]) * scale
		db := minDecibels
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		norm := (db - minDecibels) / (maxDecibels - minDecibels)
		if norm < 0 {
			norm = 0
		} else if norm > 1 {
			norm = 1
		}
		smoothed := a.smoothing*a.workspace.smoothed[i] + (1-a.smoothing)*norm
		a.workspace.smoothed[i] = smoothed
		a.workspace.freqBytes[i] = byte(smoothed*255 + 0.5)
	}

	a.workspace.mu.Unlock()
}

// FrequencyData returns a copy of the latest byte spectrum.
// NOTE: allocates per call; renderers use FrequencyDataInto.
func (a *SpectrumAnalyzer) FrequencyData() []byte {
	a.workspace.mu.RLock()
	defer a.workspace.mu.RUnlock()

	out := make([]byte, a.binCount)
	copy(out, a.workspace.freqBytes)
	return out
}

// FrequencyDataInto copies the latest byte spectrum into dst, which must
// have length BinCount().
func (a *SpectrumAnalyzer) FrequencyDataInto(dst []byte) error {
	a.workspace.mu.RLock()
	defer a.workspace.mu.RUnlock()

	if len(dst) != a.binCount {
		return fmt.Errorf("destination length %d does not match bin count %d", len(dst), a.binCount)
	}
	copy(dst, a.workspace.freqBytes)
	return nil
}

// TimeData returns a copy of the latest time-domain snapshot.
func (a *SpectrumAnalyzer) TimeData() []float64 {
	a.workspace.mu.RLock()
	defer a.workspace.mu.RUnlock()

	out := make([]float64, a.fftSize)
	copy(out, a.workspace.timeData)
	return out
}

// TimeDataInto copies the latest time-domain snapshot into dst, which must
// have length FFTSize().
func (a *SpectrumAnalyzer) TimeDataInto(dst []float64) error {
	a.workspace.mu.RLock()
	defer a.workspace.mu.RUnlock()

	if len(dst) != a.fftSize {
		return fmt.Errorf("destination length %d does not match fft size %d", len(dst), a.fftSize)
	}
	copy(dst, a.workspace.timeData)
	return nil
}

// Freeze stops snapshot updates; the last published frame keeps rendering.
func (a *SpectrumAnalyzer) Freeze() { a.frozen.Store(true) }

// Resume re-enables snapshot updates after Freeze.
func (a *SpectrumAnalyzer) Resume() { a.frozen.Store(false) }

// Frozen reports whether the analyzer is currently frozen.
func (a *SpectrumAnalyzer) Frozen() bool { return a.frozen.Load() }

// BinCount returns the number of frequency bins (fftSize/2).
func (a *SpectrumAnalyzer) BinCount() int { return a.binCount }

// FFTSize returns the configured FFT size (number of time samples).
func (a *SpectrumAnalyzer) FFTSize() int { return a.fftSize }

// SampleRate returns the configured sample rate (Hz).
func (a *SpectrumAnalyzer) SampleRate() float64 { return a.sampleRate }

// FrequencyForBin returns the center frequency (Hz) for a bin index.
func (a *SpectrumAnalyzer) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= a.binCount {
		return 0.0
	}
	return float64(binIndex) * (a.sampleRate / float64(a.fftSize))
}
