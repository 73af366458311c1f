// SPDX-License-Identifier: MIT
package audio

import (
	"testing"

	"vizor/internal/analysis"
	"vizor/internal/config"
)

func newProcessingEngine(t *testing.T, channels int, tape *Tape) *Engine {
	t.Helper()
	analyzer, err := analysis.NewSpectrumAnalyzer(testFrameSize, testSampleRate, 0, analysis.Hann)
	if err != nil {
		t.Fatalf("NewSpectrumAnalyzer failed: %v", err)
	}
	return &Engine{
		cfg: &config.AudioConfig{
			SampleRate:      testSampleRate,
			Channels:        channels,
			FramesPerBuffer: testFrameSize,
		},
		analyzer:  analyzer,
		tape:      tape,
		monoInput: make([]int32, testFrameSize),
	}
}

// The gate must not keep audio out of the session tape: tempo analysis
// needs the silence between onsets.
func TestProcessBufferTapeIgnoresGate(t *testing.T) {
	tape, err := NewTape(testFrameSize * 4)
	if err != nil {
		t.Fatalf("NewTape failed: %v", err)
	}
	engine := newProcessingEngine(t, 1, tape)
	engine.gateEnabled = true
	engine.SetGateThreshold(0.999)

	engine.processBuffer(quietBuffer)

	if got := tape.Len(); got != testFrameSize {
		t.Errorf("tape holds %d samples after gated buffer, want %d", got, testFrameSize)
	}
}

func TestProcessBufferGateBlocksAnalysis(t *testing.T) {
	engine := newProcessingEngine(t, 1, nil)
	engine.gateEnabled = true
	engine.SetGateThreshold(0.999)

	engine.processBuffer(loudBuffer) // Below the near-unity threshold.

	for i, v := range engine.analyzer.FrequencyData() {
		if v != 0 {
			t.Fatalf("bin %d = %d after gated buffer, want untouched spectrum", i, v)
		}
	}
}

func TestProcessBufferFeedsAnalyzer(t *testing.T) {
	engine := newProcessingEngine(t, 1, nil)
	engine.gateEnabled = false

	engine.processBuffer(loudBuffer)

	nonZero := false
	for _, v := range engine.analyzer.TimeData() {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("analyzer saw no signal from ungated buffer")
	}
}

func TestDownmixTakesFirstChannel(t *testing.T) {
	engine := newProcessingEngine(t, 2, nil)

	stereo := make([]int32, testFrameSize*2)
	for i := 0; i < testFrameSize; i++ {
		stereo[i*2] = int32(i + 1) // Left channel carries the signal.
		stereo[i*2+1] = -1         // Right channel is a sentinel.
	}

	mono := engine.downmix(stereo)
	if len(mono) != testFrameSize {
		t.Fatalf("downmix returned %d samples, want %d", len(mono), testFrameSize)
	}
	for i, v := range mono {
		if v != int32(i+1) {
			t.Fatalf("sample %d = %d, want %d (first channel)", i, v, i+1)
		}
	}
}

func TestDownmixMonoPassthrough(t *testing.T) {
	engine := newProcessingEngine(t, 1, nil)

	mono := engine.downmix(testBuffer)
	if &mono[0] != &testBuffer[0] {
		t.Error("mono downmix should return the input buffer without copying")
	}
}

// TestBranchlessAbsPerformance verifies the branchless absolute value
// calculation has no allocations.
func TestBranchlessAbsPerformance(t *testing.T) {
	samples := make([]int32, 1024)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = int32(i * 1000)
		} else {
			samples[i] = int32(-i * 1000)
		}
	}

	allocs := testing.AllocsPerRun(100, func() {
		for i, sample := range samples {
			mask := sample >> 31
			samples[i] = (sample ^ mask) - mask
		}
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in branchless abs, got %.1f", allocs)
	}
}

func TestProcessBufferHotPathZeroAlloc(t *testing.T) {
	tape, err := NewTape(1 << 20)
	if err != nil {
		t.Fatalf("NewTape failed: %v", err)
	}
	engine := newProcessingEngine(t, 1, tape)
	engine.gateEnabled = true
	engine.SetGateThreshold(0.001)

	// Warm up so the tape append path is exercised, then measure.
	engine.processBuffer(testBuffer)
	allocs := testing.AllocsPerRun(100, func() {
		engine.processBuffer(testBuffer)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in processBuffer, got %.1f", allocs)
	}
}

func BenchmarkProcessBuffer(b *testing.B) {
	analyzer, err := analysis.NewSpectrumAnalyzer(testFrameSize, testSampleRate, 0.8, analysis.Hann)
	if err != nil {
		b.Fatalf("NewSpectrumAnalyzer failed: %v", err)
	}
	engine := &Engine{
		cfg: &config.AudioConfig{
			SampleRate:      testSampleRate,
			Channels:        1,
			FramesPerBuffer: testFrameSize,
		},
		analyzer:      analyzer,
		monoInput:     make([]int32, testFrameSize),
		gateEnabled:   true,
		gateThreshold: lowThreshold,
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		engine.processBuffer(testBuffer)
	}
}
