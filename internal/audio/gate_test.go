// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"testing"
)

const (
	testSampleRate = 44100.0
	testFrameSize  = 1024

	lowThreshold  = int32(math.MaxInt32 / 1000)
	highThreshold = int32(math.MaxInt32 / 2)
)

var (
	quietBuffer = makeBuffer(testFrameSize, math.MaxInt32/10000)
	testBuffer  = makeBuffer(testFrameSize, math.MaxInt32/100)
	loudBuffer  = makeBuffer(testFrameSize, math.MaxInt32/2)
)

// makeBuffer builds an alternating-sign buffer peaking at amplitude.
func makeBuffer(size int, amplitude int32) []int32 {
	buf := make([]int32, size)
	for i := range buf {
		if i%2 == 0 {
			buf[i] = amplitude
		} else {
			buf[i] = -amplitude
		}
	}
	return buf
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func absFloat(v float64) float64 {
	return math.Abs(v)
}

func TestGateEnableHotPath(t *testing.T) {
	engine := &Engine{
		gateEnabled:   false,
		gateThreshold: lowThreshold,
	}

	engine.EnableGate()
	if !engine.gateEnabled {
		t.Error("Gate should be enabled after EnableGate()")
	}

	engine.DisableGate()
	if engine.gateEnabled {
		t.Error("Gate should be disabled after DisableGate()")
	}

	engine.EnableGate()
	engine.EnableGate() // Multiple calls should be idempotent
	if !engine.gateEnabled {
		t.Error("Gate should remain enabled after multiple EnableGate()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	engine := &Engine{}

	for _, tt := range tests {
		t.Run(formatFloat(tt.input), func(t *testing.T) {
			engine.SetGateThreshold(tt.input)
			got := engine.GetGateThreshold()

			if absFloat(got-tt.expected) > 0.001 {
				t.Errorf("Gate threshold conversion: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateThresholdPrecisionHotPath(t *testing.T) {
	engine := &Engine{}

	tests := []struct {
		ratio float64
		desc  string
	}{
		{0.0, "Zero"},
		{0.1, "10%"},
		{0.25, "Quarter"},
		{0.5, "Half"},
		{0.999, "Near max"},
		{1.0, "Unity"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine.SetGateThreshold(tt.ratio)
			result := engine.GetGateThreshold()

			if absFloat(result-tt.ratio) > 0.0001 {
				t.Errorf("Threshold conversion error: got %.6f, want %.6f", result, tt.ratio)
			}

			expectedInt32 := int32(tt.ratio * float64(math.MaxInt32))
			if absInt32(expectedInt32-engine.gateThreshold) > 100 {
				t.Errorf("Int32 threshold mismatch: got %d, want %d",
					engine.gateThreshold, expectedInt32)
			}
		})
	}
}

func TestGateDetectionHotPath(t *testing.T) {
	tests := []struct {
		desc          string
		buffer        []int32
		gateEnabled   bool
		threshold     float64
		shouldTrigger bool
	}{
		{"Gate disabled/Quiet signal", quietBuffer, false, 0.1, true},
		{"Gate disabled/Loud signal", loudBuffer, false, 0.1, true},
		{"Gate enabled/Quiet signal/Low threshold", quietBuffer, true, 0.00001, true},
		{"Gate enabled/Quiet signal/Mid threshold", quietBuffer, true, 0.1, false},
		{"Gate enabled/Loud signal/Mid threshold", loudBuffer, true, 0.1, true},
		{"Gate enabled/Loud signal/High threshold", loudBuffer, true, 0.999, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine := &Engine{gateEnabled: tt.gateEnabled}
			engine.SetGateThreshold(tt.threshold)

			var maxAmplitude int32
			for _, sample := range tt.buffer {
				mask := sample >> 31
				amplitude := (sample ^ mask) - mask
				diff := amplitude - maxAmplitude
				maxAmplitude += (diff & (diff >> 31)) ^ diff
			}

			triggered := !engine.gateEnabled || (maxAmplitude > engine.gateThreshold)

			if triggered != tt.shouldTrigger {
				t.Errorf("Gate detection error: got triggered=%v, want %v (max amplitude=%d, threshold=%d)",
					triggered, tt.shouldTrigger, maxAmplitude, engine.gateThreshold)
			}
		})
	}
}

func BenchmarkGateProcessingHotPath(b *testing.B) {
	benchmarks := []struct {
		name      string
		buffer    []int32
		threshold int32
		enabled   bool
	}{
		{"Gate disabled/Normal", testBuffer, lowThreshold, false},
		{"Gate enabled/Quiet signal/Low threshold", quietBuffer, lowThreshold, true},
		{"Gate enabled/Loud signal/High threshold", loudBuffer, highThreshold, true},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			engine := &Engine{
				gateEnabled:   bm.enabled,
				gateThreshold: bm.threshold,
			}

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				var maxAmplitude int32
				for _, sample := range bm.buffer {
					mask := sample >> 31
					amplitude := (sample ^ mask) - mask
					diff := amplitude - maxAmplitude
					maxAmplitude += (diff & (diff >> 31)) ^ diff
				}
				_ = !engine.gateEnabled || (maxAmplitude > engine.gateThreshold)
			}
		})
	}
}

// absInt32 returns the absolute value of x.
func absInt32(x int32) int32 {
	mask := x >> 31
	return (x ^ mask) - mask
}
